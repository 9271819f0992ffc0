package accounts

import (
	"context"
	"errors"

	"timeline/internal/models"

	"github.com/rs/zerolog"
)

// ImportStarter starts a background import run
type ImportStarter interface {
	Start(ctx context.Context, accountID, provider string) (string, error)
}

// ImportingDirectory starts an import the first time an account is stored.
// Updates of known accounts and accounts without an extractor only write through.
type ImportingDirectory struct {
	Directory
	imports ImportStarter
	logger  zerolog.Logger
}

// NewImportingDirectory wraps next so newly connected accounts get imported
func NewImportingDirectory(next Directory, imports ImportStarter, logger zerolog.Logger) *ImportingDirectory {
	return &ImportingDirectory{Directory: next, imports: imports, logger: logger}
}

// Put stores the account and starts its first import when it was not known before
func (d *ImportingDirectory) Put(ctx context.Context, account *models.Account) error {
	_, err := d.Directory.Get(ctx, account.ID)
	isNew := errors.Is(err, ErrAccountNotFound)
	if err != nil && !isNew {
		return err
	}

	if err := d.Directory.Put(ctx, account); err != nil {
		return err
	}
	if !isNew || account.Kind() == models.ProviderOther {
		return nil
	}

	importID, err := d.imports.Start(ctx, account.ID, account.Provider)
	if err != nil {
		// The account stays stored; the import can be retried by hand
		d.logger.Error().Err(err).Str("account_id", account.ID).Msg("Failed to start import for new account")
		return nil
	}
	d.logger.Info().
		Str("account_id", account.ID).
		Str("provider", account.Provider).
		Str("import_id", importID).
		Msg("Import started for new account")
	return nil
}
