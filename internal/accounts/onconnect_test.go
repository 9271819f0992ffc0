package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeline/internal/database"
	"timeline/internal/identity"
	"timeline/internal/importer"
	"timeline/internal/models"
	"timeline/internal/unipile"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptySource struct{}

func (emptySource) ListThreads(context.Context, string, string, int) (unipile.Page, error) {
	return unipile.Page{}, nil
}

func (emptySource) ListThreadMessages(context.Context, string, int) ([]models.RawRecord, error) {
	return nil, nil
}

func (emptySource) ListMail(context.Context, string, int) ([]models.RawRecord, error) {
	return []models.RawRecord{{"id": "m1", "from_attendee": map[string]any{"identifier": "jane.roe@x.com"}, "body_plain": "hi"}}, nil
}

type onConnectFixture struct {
	dir      *ImportingDirectory
	imports  *database.ImportStatusRepository
	importer *importer.Service
}

func newOnConnectFixture(t *testing.T) *onConnectFixture {
	t.Helper()

	db, err := database.New("sqlite://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, zerolog.Nop()))

	imports := database.NewImportStatusRepository(db)
	svc := importer.NewService(
		importer.NewTracker(imports),
		emptySource{},
		database.NewMessageRepository(db),
		identity.NewResolver(database.NewPersonRepository(db)),
		nil,
		importer.Options{},
		zerolog.Nop(),
	)

	return &onConnectFixture{
		dir:      NewImportingDirectory(NewSQLDirectory(database.NewAccountRepository(db)), svc, zerolog.Nop()),
		imports:  imports,
		importer: svc,
	}
}

func (f *onConnectFixture) history(t *testing.T, accountID string) []models.ImportStatus {
	t.Helper()

	require.True(t, f.importer.Shutdown(5*time.Second))
	history, err := f.imports.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	return history
}

func TestImportingDirectory_StartsImportForNewAccount(t *testing.T) {
	f := newOnConnectFixture(t)
	ctx := context.Background()

	require.NoError(t, f.dir.Put(ctx, &models.Account{ID: "g1", Provider: "GOOGLE"}))

	history := f.history(t, "g1")
	require.Len(t, history, 1)
	assert.Equal(t, models.ImportCompleted, history[0].Status)

	// Updating a known account does not start another run
	require.NoError(t, f.dir.Put(ctx, &models.Account{ID: "g1", Provider: "GOOGLE", Status: "CREDENTIALS"}))
	assert.Len(t, f.history(t, "g1"), 1)
}

func TestImportingDirectory_SkipsUnsupportedProvider(t *testing.T) {
	f := newOnConnectFixture(t)

	require.NoError(t, f.dir.Put(context.Background(), &models.Account{ID: "t1", Provider: "TELEGRAM"}))
	assert.Empty(t, f.history(t, "t1"))

	account, err := f.dir.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "TELEGRAM", account.Provider)
}

func TestImportingDirectory_SyncTriggersImports(t *testing.T) {
	f := newOnConnectFixture(t)

	syncer := NewSyncer(fakeLister{accounts: []models.RawRecord{
		{"id": "g1", "type": "GOOGLE_OAUTH"},
		{"id": "l1", "type": "LINKEDIN"},
	}}, f.dir, zerolog.Nop())

	synced, err := syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	assert.Len(t, f.history(t, "g1"), 1)
	assert.Len(t, f.history(t, "l1"), 1)
}

type failingStarter struct{}

func (failingStarter) Start(context.Context, string, string) (string, error) {
	return "", errors.New("store unavailable")
}

func TestImportingDirectory_StartErrorKeepsAccount(t *testing.T) {
	dir := NewImportingDirectory(newTestDirectory(t), failingStarter{}, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, dir.Put(ctx, &models.Account{ID: "g1", Provider: "GOOGLE"}))

	_, err := dir.Get(ctx, "g1")
	assert.NoError(t, err)
}
