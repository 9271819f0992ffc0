// Package app wires the store, the messaging API client and the services
// shared by the server and the command line tool.
package app

import (
	"context"
	"fmt"
	"time"

	"timeline/internal/accounts"
	"timeline/internal/config"
	"timeline/internal/database"
	"timeline/internal/events"
	"timeline/internal/identity"
	"timeline/internal/importer"
	"timeline/internal/server"
	"timeline/internal/timeline"
	"timeline/internal/unipile"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// App holds every long-lived component
type App struct {
	DB        *sqlx.DB
	Imports   *database.ImportStatusRepository
	Directory accounts.Directory
	Client    *unipile.Client
	Importer  *importer.Service
	Timeline  *timeline.Service
	Syncer    *accounts.Syncer

	notifier events.Notifier
	logger   zerolog.Logger
}

// Build opens and migrates the store and wires the services on top of it
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	var notifier events.Notifier = events.NoopNotifier{}
	if cfg.NATSURL != "" {
		nn, err := events.NewNATSNotifier(cfg.NATSURL, logger)
		if err != nil {
			// Notifications are optional; imports still run without them
			logger.Warn().Err(err).Msg("Import notifications disabled")
		} else {
			notifier = nn
		}
	}

	people := database.NewPersonRepository(db)
	messages := database.NewMessageRepository(db)
	imports := database.NewImportStatusRepository(db)

	client := unipile.NewClient(cfg.UnipileBaseURL, cfg.UnipileAPIKey, time.Duration(cfg.UnipileTimeout)*time.Second)
	if !client.Configured() {
		logger.Warn().Msg("UNIPILE_BASE_URL or UNIPILE_API_KEY not set, imports will fail")
	}

	imp := importer.NewService(
		importer.NewTracker(imports),
		client,
		messages,
		identity.NewResolver(people),
		notifier,
		importer.OptionsFromConfig(cfg),
		logger.With().Str("component", "importer").Logger(),
	)

	// Newly stored accounts get their first import without a separate trigger
	directory := accounts.NewImportingDirectory(
		accounts.NewCachedDirectory(
			accounts.NewSQLDirectory(database.NewAccountRepository(db)),
			time.Duration(cfg.AccountCacheTTL)*time.Second,
		),
		imp,
		logger,
	)

	return &App{
		DB:        db,
		Imports:   imports,
		Directory: directory,
		Client:    client,
		Importer:  imp,
		Timeline:  timeline.NewService(people, messages, cfg.FuzzyThreshold, logger),
		Syncer:    accounts.NewSyncer(client, directory, logger),
		notifier:  notifier,
		logger:    logger,
	}, nil
}

// Services exposes the components the HTTP routes need
func (a *App) Services() server.Services {
	return server.Services{
		Directory: a.Directory,
		Importer:  a.Importer,
		History:   a.Imports,
		Timeline:  a.Timeline,
		Syncer:    a.Syncer,
		Refresher: a.Syncer,
		Ingester:  a.Importer,
		Profiles:  a.Client,
	}
}

// ProviderFor returns the stored provider of an account
func (a *App) ProviderFor(ctx context.Context, accountID string) (string, error) {
	account, err := a.Directory.Get(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("account %s: %w", accountID, err)
	}
	return account.Provider, nil
}

// Close waits up to timeout for background imports, then releases connections.
// It reports whether every import finished in time.
func (a *App) Close(timeout time.Duration) bool {
	drained := a.Importer.Shutdown(timeout)
	if !drained {
		a.logger.Warn().Msg("Import runs still active at shutdown")
	}
	if nn, ok := a.notifier.(*events.NATSNotifier); ok {
		nn.Close()
	}
	if err := a.DB.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close database")
	}
	return drained
}
