package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"timeline/internal/models"

	"github.com/jmoiron/sqlx"
)

const accountColumns = `id, provider, name, email, status, created_at, updated_at`

// AccountRepository is the SQL backed account directory
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Get returns one account or ErrNotFound
func (r *AccountRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	query := r.db.Rebind(`SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`)
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Put inserts the account or replaces an existing one with the same id
func (r *AccountRepository) Put(ctx context.Context, account *models.Account) error {
	ts := now()
	account.UpdatedAt = ts

	existing, err := r.Get(ctx, account.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		if account.CreatedAt == "" {
			account.CreatedAt = ts
		}
		query := r.db.Rebind(`INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if _, err := r.db.ExecContext(ctx, query,
			account.ID, account.Provider, account.Name, account.Email, account.Status, account.CreatedAt, account.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}
		return nil
	case err != nil:
		return err
	}

	account.CreatedAt = existing.CreatedAt
	query := r.db.Rebind(`UPDATE accounts SET provider = ?, name = ?, email = ?, status = ?, updated_at = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query,
		account.Provider, account.Name, account.Email, account.Status, account.UpdatedAt, account.ID); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// Delete removes an account, returning ErrNotFound when nothing was removed
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all accounts ordered by creation time
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	if err := r.db.SelectContext(ctx, &accounts, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
