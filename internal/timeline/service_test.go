package timeline

import (
	"context"
	"errors"
	"testing"

	"timeline/internal/database"
	"timeline/internal/identity"
	"timeline/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service  *Service
	people   *database.PersonRepository
	messages *database.MessageRepository
	resolver *identity.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New("sqlite://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, zerolog.Nop()))

	people := database.NewPersonRepository(db)
	messages := database.NewMessageRepository(db)
	return &fixture{
		service:  NewService(people, messages, 0, zerolog.Nop()),
		people:   people,
		messages: messages,
		resolver: identity.NewResolver(people),
	}
}

func (f *fixture) store(t *testing.T, email, name, channel, content, ts string) string {
	t.Helper()

	personID, err := f.resolver.Resolve(context.Background(), email, name)
	require.NoError(t, err)
	require.NoError(t, f.messages.Insert(context.Background(), &models.Message{
		PersonID:  personID,
		AccountID: "acc1",
		Channel:   channel,
		Sender:    name,
		Recipient: "You",
		Content:   content,
		Timestamp: ts,
	}))
	return personID
}

func TestListMessagesForPerson_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	personID := f.store(t, "jane.roe@x.com", "Jane Roe", "email", "Hello there", "2024-01-01T00:00:00Z")

	messages, err := f.service.ListMessagesForPerson(ctx, personID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Hello there", messages[0].Content)
	assert.Equal(t, "2024-01-01T00:00:00Z", messages[0].Timestamp)
	assert.Equal(t, "email", messages[0].Channel)
}

func TestListMessagesForPerson_SpansGroupNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mailID := f.store(t, "john.smith@x.com", "", "email", "mail", "2024-01-01T00:00:00Z")
	chatID := f.store(t, "", "Jon Smith", "linkedin", "chat", "2024-02-01T00:00:00Z")
	assert.NotEqual(t, mailID, chatID)

	for _, id := range []string{mailID, chatID} {
		messages, err := f.service.ListMessagesForPerson(ctx, id)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "chat", messages[0].Content)
		assert.Equal(t, "mail", messages[1].Content)
	}
}

func TestListMessagesForPerson_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ListMessagesForPerson(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestListPeople(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store(t, "john.smith@x.com", "", "email", "a", "2024-01-01T00:00:00Z")
	f.store(t, "", "John Smith", "linkedin", "b", "2024-03-01T00:00:00Z")
	f.store(t, "ann@y.com", "Ann Lee", "email", "c", "2024-02-01T00:00:00Z")
	_, err := f.resolver.Resolve(ctx, "quiet@z.com", "Quiet Person")
	require.NoError(t, err)

	people, err := f.service.ListPeople(ctx)
	require.NoError(t, err)
	require.Len(t, people, 3)

	john := people[0]
	assert.Equal(t, "John Smith", john.Name)
	assert.Equal(t, "john.smith@x.com", john.Email)
	assert.Equal(t, 2, john.MessageCount)
	assert.Equal(t, []string{"email", "linkedin"}, john.Channels)
	assert.Equal(t, "2024-03-01T00:00:00Z", john.LastMessageAt)
	assert.Len(t, john.PersonIDs, 2)

	assert.Equal(t, "Ann Lee", people[1].Name)
	assert.Equal(t, 1, people[1].MessageCount)

	assert.Equal(t, "Quiet Person", people[2].Name)
	assert.Equal(t, 0, people[2].MessageCount)
	assert.Empty(t, people[2].LastMessageAt)
	assert.NotNil(t, people[2].Channels)
}

func TestListPeople_Empty(t *testing.T) {
	f := newFixture(t)

	people, err := f.service.ListPeople(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, people)
	assert.Empty(t, people)
}

func TestRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store(t, "jane.roe@x.com", "", "email", "old", "2024-01-01T00:00:00Z")
	f.store(t, "jane.roe@x.com", "", "email", "new", "2024-01-02T00:00:00Z")

	recent, err := f.service.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].Content)
	require.NotNil(t, recent[0].PersonName)
	assert.Equal(t, "Jane Roe", *recent[0].PersonName)

	recent, err = f.service.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultRecentLimit},
		{-5, DefaultRecentLimit},
		{50, 50},
		{MaxRecentLimit, MaxRecentLimit},
		{10000, MaxRecentLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "limit %d", tt.in)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stats, err := f.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalPeople)
	assert.Equal(t, 0, stats.TotalMessages)
	assert.NotNil(t, stats.Channels)

	f.store(t, "jane.roe@x.com", "Jane Roe", "email", "a", "2024-01-01T00:00:00Z")
	f.store(t, "", "Jane Roe", "linkedin", "b", "2024-01-02T00:00:00Z")
	f.store(t, "", "Bob Stone", "linkedin", "c", "2024-01-03T00:00:00Z")

	stats, err = f.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPeople)
	assert.Equal(t, 3, stats.TotalMessages)
	assert.Equal(t, map[string]int{"email": 1, "linkedin": 2}, stats.Channels)
}

func TestStats_StoreError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))

	svc := NewService(database.NewPersonRepository(db), database.NewMessageRepository(db), 0, zerolog.Nop())
	_, err = svc.Stats(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
