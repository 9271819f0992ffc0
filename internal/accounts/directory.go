// Package accounts is the directory of connected messaging accounts.
package accounts

import (
	"context"
	"errors"
	"sync"
	"time"

	"timeline/internal/database"
	"timeline/internal/models"
)

// ErrAccountNotFound is returned for unknown account ids
var ErrAccountNotFound = errors.New("account not found")

// Directory maps account ids to providers and metadata
type Directory interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	Put(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Account, error)
}

// SQLDirectory adapts the account repository, translating not-found errors
type SQLDirectory struct {
	repo *database.AccountRepository
}

// NewSQLDirectory creates a directory stored in the relational database
func NewSQLDirectory(repo *database.AccountRepository) *SQLDirectory {
	return &SQLDirectory{repo: repo}
}

// Get returns one account
func (d *SQLDirectory) Get(ctx context.Context, id string) (*models.Account, error) {
	account, err := d.repo.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return account, err
}

// Put stores an account
func (d *SQLDirectory) Put(ctx context.Context, account *models.Account) error {
	return d.repo.Put(ctx, account)
}

// Delete removes an account
func (d *SQLDirectory) Delete(ctx context.Context, id string) error {
	err := d.repo.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}

// List returns every account
func (d *SQLDirectory) List(ctx context.Context) ([]models.Account, error) {
	return d.repo.List(ctx)
}

type cacheEntry struct {
	account   models.Account
	expiresAt time.Time
}

// CachedDirectory keeps single-account lookups in memory for a TTL.
// Writes go straight through and invalidate the entry.
type CachedDirectory struct {
	next  Directory
	ttl   time.Duration
	items map[string]cacheEntry
	mutex sync.RWMutex
	now   func() time.Time
}

// NewCachedDirectory wraps next with a TTL cache
func NewCachedDirectory(next Directory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:  next,
		ttl:   ttl,
		items: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// Get serves from cache when fresh, otherwise reads through
func (d *CachedDirectory) Get(ctx context.Context, id string) (*models.Account, error) {
	if account, ok := d.lookup(id); ok {
		return &account, nil
	}

	account, err := d.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d.mutex.Lock()
	d.items[id] = cacheEntry{account: *account, expiresAt: d.now().Add(d.ttl)}
	d.mutex.Unlock()

	return account, nil
}

func (d *CachedDirectory) lookup(id string) (models.Account, bool) {
	d.mutex.RLock()
	entry, exists := d.items[id]
	d.mutex.RUnlock()

	if !exists {
		return models.Account{}, false
	}
	if d.now().After(entry.expiresAt) {
		d.invalidate(id)
		return models.Account{}, false
	}
	return entry.account, true
}

func (d *CachedDirectory) invalidate(id string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.items, id)
}

// Put writes through and invalidates
func (d *CachedDirectory) Put(ctx context.Context, account *models.Account) error {
	defer d.invalidate(account.ID)
	return d.next.Put(ctx, account)
}

// Delete writes through and invalidates
func (d *CachedDirectory) Delete(ctx context.Context, id string) error {
	defer d.invalidate(id)
	return d.next.Delete(ctx, id)
}

// List always reads through
func (d *CachedDirectory) List(ctx context.Context) ([]models.Account, error) {
	return d.next.List(ctx)
}

// Status groups accounts by provider family
func Status(ctx context.Context, dir Directory) (models.ConnectionStatus, error) {
	list, err := dir.List(ctx)
	if err != nil {
		return models.ConnectionStatus{}, err
	}

	status := models.ConnectionStatus{
		Mail:          models.ProviderConnection{Accounts: []models.Account{}},
		Chat:          models.ProviderConnection{Accounts: []models.Account{}},
		TotalAccounts: len(list),
	}
	for _, account := range list {
		switch account.Kind() {
		case models.ProviderMail:
			status.Mail.Accounts = append(status.Mail.Accounts, account)
		case models.ProviderChat:
			status.Chat.Accounts = append(status.Chat.Accounts, account)
		}
	}
	status.Mail.Connected = len(status.Mail.Accounts) > 0
	status.Chat.Connected = len(status.Chat.Accounts) > 0
	status.BothConnected = status.Mail.Connected && status.Chat.Connected

	return status, nil
}
