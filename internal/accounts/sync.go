package accounts

import (
	"context"
	"fmt"
	"strings"

	"timeline/internal/extract"
	"timeline/internal/models"

	"github.com/rs/zerolog"
)

// Lister reads the accounts connected upstream
type Lister interface {
	ListAccounts(ctx context.Context) ([]models.RawRecord, error)
	GetAccount(ctx context.Context, accountID string) (models.RawRecord, error)
}

// Syncer copies upstream accounts into a directory
type Syncer struct {
	source Lister
	dir    Directory
	logger zerolog.Logger
}

// NewSyncer creates a new syncer
func NewSyncer(source Lister, dir Directory, logger zerolog.Logger) *Syncer {
	return &Syncer{source: source, dir: dir, logger: logger}
}

// Sync stores every upstream account and returns how many were written
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	raws, err := s.source.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, raw := range raws {
		account, ok := FromRaw(raw)
		if !ok {
			s.logger.Debug().Interface("account", raw).Msg("Skipping upstream account without id")
			continue
		}
		if err := s.dir.Put(ctx, &account); err != nil {
			return synced, fmt.Errorf("failed to store account %s: %w", account.ID, err)
		}
		synced++
	}

	s.logger.Info().Int("synced", synced).Msg("Accounts synced")
	return synced, nil
}

// SyncOne refreshes a single account from upstream and returns what was stored
func (s *Syncer) SyncOne(ctx context.Context, accountID string) (*models.Account, error) {
	raw, err := s.source.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account, ok := FromRaw(raw)
	if !ok {
		return nil, fmt.Errorf("upstream account %s has no id", accountID)
	}
	if err := s.dir.Put(ctx, &account); err != nil {
		return nil, fmt.Errorf("failed to store account %s: %w", account.ID, err)
	}

	s.logger.Info().Str("account_id", account.ID).Str("status", account.Status).Msg("Account refreshed")
	return &account, nil
}

// FromRaw maps an upstream account payload onto an Account.
// GOOGLE_OAUTH is normalized to GOOGLE and the mailbox address is read from connection_params.
func FromRaw(raw models.RawRecord) (models.Account, bool) {
	id := extract.String(raw["id"])
	if id == "" {
		return models.Account{}, false
	}

	provider := strings.ToUpper(extract.String(raw["type"]))
	if provider == "" {
		provider = strings.ToUpper(extract.String(raw["provider"]))
	}
	if provider == "GOOGLE_OAUTH" {
		provider = "GOOGLE"
	}

	name := extract.String(raw["name"])
	email := ""
	if params, ok := raw["connection_params"].(map[string]any); ok {
		if mail, ok := params["mail"].(map[string]any); ok {
			email = extract.String(mail["username"])
		}
	}
	if email == "" && strings.Contains(name, "@") {
		email = name
	}

	status := "OK"
	if sources, ok := raw["sources"].([]any); ok && len(sources) > 0 {
		if src, ok := sources[0].(map[string]any); ok {
			if s := extract.String(src["status"]); s != "" {
				status = s
			}
		}
	}

	return models.Account{
		ID:       id,
		Provider: provider,
		Name:     name,
		Email:    email,
		Status:   status,
	}, true
}
