package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"timeline/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestPersonRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPersonRepository(newTestDB(t))

	first := &models.Person{Name: "Jane Roe", Email: strPtr("jane@x.com"), CreatedAt: "2024-01-01T00:00:00.000000Z"}
	first.MergedPersonID = strPtr("self")
	require.NoError(t, repo.Insert(ctx, first))
	assert.NotEmpty(t, first.ID)

	second := &models.Person{Name: "Jane Roe", MergedPersonID: strPtr(first.ID), CreatedAt: "2024-01-02T00:00:00.000000Z"}
	require.NoError(t, repo.Insert(ctx, second))

	t.Run("find by email", func(t *testing.T) {
		p, err := repo.FindByEmail(ctx, "jane@x.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, p.ID)
		assert.Equal(t, "jane@x.com", p.EmailValue())
	})

	t.Run("find by name returns oldest row", func(t *testing.T) {
		p, err := repo.FindByName(ctx, "Jane Roe")
		require.NoError(t, err)
		assert.Equal(t, first.ID, p.ID)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find by ids", func(t *testing.T) {
		people, err := repo.FindByIDs(ctx, []string{second.ID, first.ID, "unknown"})
		require.NoError(t, err)
		require.Len(t, people, 2)
		assert.Equal(t, first.ID, people[0].ID)
		assert.Equal(t, first.ID, people[1].CanonicalID())
	})

	t.Run("empty id set", func(t *testing.T) {
		people, err := repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, people)
	})

	t.Run("list and count", func(t *testing.T) {
		people, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, people, 2)

		// "self" and first.ID are two distinct canonical ids
		count, err := repo.CountCanonical(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestMessageRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	people := NewPersonRepository(db)
	repo := NewMessageRepository(db)

	person := &models.Person{Name: "John Doe", Email: strPtr("john.doe@x.com")}
	require.NoError(t, people.Insert(ctx, person))

	older := &models.Message{
		PersonID: person.ID, AccountID: "acc1", Channel: string(models.ChannelEmail),
		Sender: "john.doe@x.com", Subject: "Hi", Content: "Hello there",
		Timestamp: "2024-01-01T00:00:00Z", ExternalID: strPtr("m1"),
	}
	newer := &models.Message{
		PersonID: person.ID, AccountID: "acc2", Channel: string(models.ChannelLinkedIn),
		Sender: "John Doe", Recipient: "You", Content: "Ping",
		Timestamp: "2024-02-01T00:00:00Z", ThreadID: strPtr("chat-1"),
	}
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))

	t.Run("find by person ids newest first", func(t *testing.T) {
		messages, err := repo.FindByPersonIDs(ctx, []string{person.ID})
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, newer.ID, messages[0].ID)
		assert.Equal(t, "Hello there", messages[1].Content)
		assert.Equal(t, "2024-01-01T00:00:00Z", messages[1].Timestamp)
		assert.Equal(t, "chat-1", *messages[0].ThreadID)
	})

	t.Run("recent joins person", func(t *testing.T) {
		recent, err := repo.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "Ping", recent[0].Content)
		require.NotNil(t, recent[0].PersonName)
		assert.Equal(t, "John Doe", *recent[0].PersonName)
	})

	t.Run("counts", func(t *testing.T) {
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		byChannel, err := repo.CountByChannel(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"email": 1, "linkedin": 1}, byChannel)
	})

	t.Run("summaries", func(t *testing.T) {
		summaries, err := repo.Summaries(ctx)
		require.NoError(t, err)
		assert.Len(t, summaries, 2)
		for _, s := range summaries {
			assert.Equal(t, person.ID, s.PersonID)
			assert.Equal(t, 1, s.MessageCount)
		}
	})

	t.Run("exists external", func(t *testing.T) {
		exists, err := repo.ExistsExternal(ctx, "acc1", "m1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsExternal(ctx, "acc2", "m1")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestImportStatusRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewImportStatusRepository(newTestDB(t))

	status, err := repo.Create(ctx, "acc1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportStarting, status.Status)

	require.NoError(t, repo.Update(ctx, status.ID, models.ImportStatusUpdate{
		Status: models.ImportProcessing,
		Total:  intPtr(25),
	}))
	require.NoError(t, repo.Update(ctx, status.ID, models.ImportStatusUpdate{
		Status:    models.ImportProcessing,
		Processed: intPtr(10),
	}))

	got, err := repo.Get(ctx, status.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportProcessing, got.Status)
	require.NotNil(t, got.TotalMessages)
	assert.Equal(t, 25, *got.TotalMessages)
	require.NotNil(t, got.ProcessedMessages)
	assert.Equal(t, 10, *got.ProcessedMessages)
	assert.Nil(t, got.CompletedAt)

	completedAt := Timestamp(time.Now())
	require.NoError(t, repo.Update(ctx, status.ID, models.ImportStatusUpdate{
		Status:      models.ImportCompleted,
		Processed:   intPtr(23),
		CompletedAt: &completedAt,
	}))

	got, err = repo.Get(ctx, status.ID)
	require.NoError(t, err)
	assert.Equal(t, 23, *got.ProcessedMessages)
	assert.Equal(t, completedAt, *got.CompletedAt)

	history, err := repo.ListByAccount(ctx, "acc1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newTestDB(t))

	account := &models.Account{ID: "acc1", Provider: "GOOGLE", Email: "me@x.com"}
	require.NoError(t, repo.Put(ctx, account))
	createdAt := account.CreatedAt

	account.Provider = "LINKEDIN"
	require.NoError(t, repo.Put(ctx, account))

	got, err := repo.Get(ctx, "acc1")
	require.NoError(t, err)
	assert.Equal(t, "LINKEDIN", got.Provider)
	assert.Equal(t, createdAt, got.CreatedAt)

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, repo.Delete(ctx, "acc1"))
	assert.ErrorIs(t, repo.Delete(ctx, "acc1"), ErrNotFound)

	_, err = repo.Get(ctx, "acc1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositories_StoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("person insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO people").WillReturnError(sql.ErrConnDone)

		err := NewPersonRepository(db).Insert(ctx, &models.Person{Name: "X"})
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.Contains(t, err.Error(), "failed to insert person")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("person lookup", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM people WHERE email = \\?").
			WithArgs("a@x.com").
			WillReturnError(sql.ErrConnDone)

		_, err := NewPersonRepository(db).FindByEmail(ctx, "a@x.com")
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("message insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO messages").WillReturnError(sql.ErrTxDone)

		err := NewMessageRepository(db).Insert(ctx, &models.Message{PersonID: "p1"})
		assert.Contains(t, err.Error(), "failed to insert message")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status update builds optional columns", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE import_status SET status = \\?, updated_at = \\?, processed_messages = \\? WHERE id = \\?").
			WithArgs(models.ImportProcessing, sqlmock.AnyArg(), 10, "imp1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewImportStatusRepository(db).Update(ctx, "imp1", models.ImportStatusUpdate{
			Status:    models.ImportProcessing,
			Processed: intPtr(10),
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status get not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT (.+) FROM import_status WHERE id = \\?").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		_, err := NewImportStatusRepository(db).Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
