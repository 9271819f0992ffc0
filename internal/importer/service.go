// Package importer drives import runs: fetch raw records, normalize them, resolve
// people, store messages and report progress.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"timeline/internal/config"
	"timeline/internal/events"
	"timeline/internal/extract"
	"timeline/internal/identity"
	"timeline/internal/models"
	"timeline/internal/names"
	"timeline/internal/unipile"

	"github.com/rs/zerolog"
)

// ErrUnsupportedProvider is returned when a provider has no extractor
var ErrUnsupportedProvider = extract.ErrUnsupportedProvider

// Source yields raw provider records
type Source interface {
	ListThreads(ctx context.Context, accountID, cursor string, limit int) (unipile.Page, error)
	ListThreadMessages(ctx context.Context, threadID string, limit int) ([]models.RawRecord, error)
	ListMail(ctx context.Context, accountID string, limit int) ([]models.RawRecord, error)
}

// MessageStore persists normalized messages
type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	ExistsExternal(ctx context.Context, accountID, externalID string) (bool, error)
}

// PersonResolver maps a participant to a canonical person id
type PersonResolver interface {
	Resolve(ctx context.Context, email, name string) (string, error)
}

// Options tune fetching and checkpointing
type Options struct {
	ThreadCap         int // 0 disables the cap
	ThreadPageSize    int
	MessagesPerThread int
	MailLimit         int
	PageDelay         time.Duration
	CheckpointEvery   int
	BodyLimit         int
	Dedupe            bool
}

// OptionsFromConfig maps configuration onto import options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ThreadCap:         cfg.ChatThreadCap,
		ThreadPageSize:    cfg.ChatThreadPageSize,
		MessagesPerThread: cfg.ChatMessagesPerThread,
		MailLimit:         cfg.MailFetchLimit,
		PageDelay:         cfg.PageDelay(),
		CheckpointEvery:   cfg.CheckpointEvery,
		BodyLimit:         cfg.MailBodyLimit,
		Dedupe:            cfg.DedupeMessages,
	}
}

func (o Options) withDefaults() Options {
	if o.ThreadPageSize <= 0 {
		o.ThreadPageSize = 20
	}
	if o.MessagesPerThread <= 0 {
		o.MessagesPerThread = 100
	}
	if o.MailLimit <= 0 {
		o.MailLimit = 100
	}
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = 10
	}
	if o.BodyLimit <= 0 {
		o.BodyLimit = extract.DefaultBodyLimit
	}
	return o
}

// Service runs imports. Each run has a single writer; runs for different accounts may overlap.
type Service struct {
	tracker  *Tracker
	source   Source
	messages MessageStore
	resolver PersonResolver
	notifier events.Notifier
	opts     Options
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// NewService creates an import service
func NewService(tracker *Tracker, source Source, messages MessageStore, resolver PersonResolver,
	notifier events.Notifier, opts Options, logger zerolog.Logger) *Service {
	if notifier == nil {
		notifier = events.NoopNotifier{}
	}
	return &Service{
		tracker:  tracker,
		source:   source,
		messages: messages,
		resolver: resolver,
		notifier: notifier,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Start creates a run and executes it in the background, returning the import id immediately.
// An unknown provider fails the run before any fetch and returns ErrUnsupportedProvider
// together with the id of the failed run.
func (s *Service) Start(ctx context.Context, accountID, provider string) (string, error) {
	run, extractor, err := s.begin(ctx, accountID, provider)
	if run == nil {
		return "", err
	}
	if err != nil {
		return run.ID(), err
	}

	// The run outlives the request that started it; cancellation is not supported mid-run
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.execute(runCtx, run, accountID, provider, extractor)
	}()

	return run.ID(), nil
}

// Run executes a whole import synchronously and returns its final status
func (s *Service) Run(ctx context.Context, accountID, provider string) (models.ImportStatus, error) {
	run, extractor, err := s.begin(ctx, accountID, provider)
	if run == nil {
		return models.ImportStatus{}, err
	}
	if err != nil {
		return run.Status(), err
	}

	err = s.execute(ctx, run, accountID, provider, extractor)
	return run.Status(), err
}

// Ingest stores records pushed by the messaging API outside an import run, through the
// same extraction and identity resolution. It returns how many messages were stored.
func (s *Service) Ingest(ctx context.Context, accountID, provider string, records []models.RawRecord) (int, error) {
	extractor, err := extract.For(models.ParseProvider(provider), extract.Options{BodyLimit: s.opts.BodyLimit})
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, raw := range records {
		ok, err := s.store(ctx, accountID, extractor, raw)
		if err != nil {
			return stored, err
		}
		if ok {
			stored++
		}
	}

	s.logger.Info().
		Str("account_id", accountID).
		Str("provider", provider).
		Int("received", len(records)).
		Int("stored", stored).
		Msg("Ingested pushed messages")
	return stored, nil
}

// Status returns the persisted status of an import run
func (s *Service) Status(ctx context.Context, importID string) (*models.ImportStatus, error) {
	return s.tracker.Get(ctx, importID)
}

// Shutdown waits for background runs until timeout. Returns false when runs are still active.
func (s *Service) Shutdown(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Service) begin(ctx context.Context, accountID, provider string) (*Run, extract.Extractor, error) {
	run, err := s.tracker.Begin(ctx, accountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create import status: %w", err)
	}

	extractor, err := extract.For(models.ParseProvider(provider), extract.Options{BodyLimit: s.opts.BodyLimit})
	if err != nil {
		s.fail(ctx, run, err)
		return run, nil, err
	}
	return run, extractor, nil
}

func (s *Service) execute(ctx context.Context, run *Run, accountID, provider string, extractor extract.Extractor) error {
	logger := s.logger.With().
		Str("import_id", run.ID()).
		Str("account_id", accountID).
		Str("provider", provider).
		Logger()

	logger.Info().Msg("Import started")

	if err := run.Fetching(ctx); err != nil {
		return s.fail(ctx, run, err)
	}

	records, err := s.fetch(ctx, accountID, models.ParseProvider(provider))
	if err != nil {
		logger.Error().Err(err).Msg("Fetch failed")
		return s.fail(ctx, run, err)
	}

	if err := run.Processing(ctx, len(records)); err != nil {
		return s.fail(ctx, run, err)
	}
	logger.Info().Int("total", len(records)).Msg("Fetched raw records")

	stored, skipped := 0, 0
	for i, raw := range records {
		ok, err := s.store(ctx, accountID, extractor, raw)
		if err != nil {
			logger.Error().Err(err).Int("record", i).Msg("Store failed")
			return s.fail(ctx, run, err)
		}
		if !ok {
			skipped++
			continue
		}

		stored++
		if stored%s.opts.CheckpointEvery == 0 {
			if err := run.Checkpoint(ctx, stored); err != nil {
				return s.fail(ctx, run, err)
			}
		}
	}

	if err := run.Complete(ctx, stored); err != nil {
		return s.fail(ctx, run, err)
	}
	s.notifier.ImportFinished(ctx, run.Status())

	logger.Info().Int("stored", stored).Int("skipped", skipped).Msg("Import completed")
	return nil
}

// store handles one raw record. ok is false for skipped records; err is fatal to the run.
func (s *Service) store(ctx context.Context, accountID string, extractor extract.Extractor, raw models.RawRecord) (bool, error) {
	msg, ok := extractor.Extract(raw)
	if !ok {
		s.logger.Debug().Str("account_id", accountID).Str("external_id", extract.String(raw["id"])).Msg("Skipping malformed record")
		return false, nil
	}

	if s.opts.Dedupe && msg.ExternalID != "" {
		exists, err := s.messages.ExistsExternal(ctx, accountID, msg.ExternalID)
		if err != nil {
			s.logger.Warn().Err(err).Str("external_id", msg.ExternalID).Msg("Skipping message, duplicate check failed")
			return false, nil
		}
		if exists {
			return false, nil
		}
	}

	sender := strings.TrimSpace(msg.Sender)
	var personID string
	var err error
	if msg.Channel == models.ChannelEmail && strings.Contains(sender, "@") {
		personID, err = s.resolver.Resolve(ctx, sender, names.FromEmail(sender))
	} else {
		personID, err = s.resolver.Resolve(ctx, "", sender)
	}
	if errors.Is(err, identity.ErrInvalidInput) {
		s.logger.Warn().Str("external_id", msg.ExternalID).Msg("Skipping message without sender identity")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve person: %w", err)
	}

	stored := &models.Message{
		PersonID:   personID,
		AccountID:  accountID,
		Channel:    string(msg.Channel),
		Sender:     sender,
		Recipient:  msg.Recipient,
		Subject:    msg.Subject,
		Content:    strings.TrimSpace(msg.Content),
		Timestamp:  msg.Timestamp,
		ThreadID:   optional(msg.ThreadID),
		ExternalID: optional(msg.ExternalID),
	}
	if err := s.messages.Insert(ctx, stored); err != nil {
		s.logger.Warn().Err(err).Str("external_id", msg.ExternalID).Msg("Skipping message, insert failed")
		return false, nil
	}
	return true, nil
}

// fail moves the run to failed, notifies, and returns cause
func (s *Service) fail(ctx context.Context, run *Run, cause error) error {
	if err := run.Fail(ctx, cause); err != nil {
		s.logger.Error().Err(err).Str("import_id", run.ID()).Msg("Failed to mark import as failed")
		return errors.Join(cause, err)
	}
	s.notifier.ImportFinished(ctx, run.Status())
	return cause
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
