package database

import (
	"context"
	"fmt"

	"timeline/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const messageColumns = `id, person_id, account_id, channel, sender, recipient, subject, content, sent_at, thread_id, external_id, created_at`

// MessageRepository stores normalized messages. Messages are immutable once inserted.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert stores m, generating its id and creation time when unset
func (r *MessageRepository) Insert(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt == "" {
		m.CreatedAt = now()
	}

	query := r.db.Rebind(`INSERT INTO messages (` + messageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.PersonID, m.AccountID, m.Channel, m.Sender, m.Recipient,
		m.Subject, m.Content, m.Timestamp, m.ThreadID, m.ExternalID, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ExistsExternal reports whether a message with this upstream id was already stored for the account
func (r *MessageRepository) ExistsExternal(ctx context.Context, accountID, externalID string) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM messages WHERE account_id = ? AND external_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, accountID, externalID); err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}
	return count > 0, nil
}

// FindByPersonIDs returns the messages of all given person rows, newest first
func (r *MessageRepository) FindByPersonIDs(ctx context.Context, personIDs []string) ([]models.Message, error) {
	if len(personIDs) == 0 {
		return []models.Message{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+messageColumns+` FROM messages WHERE person_id IN (?) ORDER BY sent_at DESC, id`, personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build message query: %w", err)
	}

	messages := []models.Message{}
	if err := r.db.SelectContext(ctx, &messages, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	return messages, nil
}

// Recent returns the latest messages joined with their person's name and email
func (r *MessageRepository) Recent(ctx context.Context, limit int) ([]models.RecentMessage, error) {
	query := r.db.Rebind(`
		SELECT m.id, m.person_id, m.account_id, m.channel, m.sender, m.recipient, m.subject,
			m.content, m.sent_at, m.thread_id, m.external_id, m.created_at,
			p.name AS person_name, p.email AS person_email
		FROM messages m
		LEFT JOIN people p ON p.id = m.person_id
		ORDER BY m.sent_at DESC, m.id
		LIMIT ?`)

	messages := []models.RecentMessage{}
	if err := r.db.SelectContext(ctx, &messages, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	return messages, nil
}

// Count returns the number of stored messages
func (r *MessageRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages`); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// CountByChannel returns message counts keyed by channel
func (r *MessageRepository) CountByChannel(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Channel string `db:"channel"`
		Count   int    `db:"message_count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT channel, COUNT(*) AS message_count FROM messages GROUP BY channel`); err != nil {
		return nil, fmt.Errorf("failed to count messages by channel: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Channel] = row.Count
	}
	return counts, nil
}

// Summaries aggregates message count and latest timestamp per person row and channel
func (r *MessageRepository) Summaries(ctx context.Context) ([]models.MessageSummary, error) {
	summaries := []models.MessageSummary{}
	query := `
		SELECT person_id, channel, COUNT(*) AS message_count, MAX(sent_at) AS last_message_at
		FROM messages
		GROUP BY person_id, channel`
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("failed to summarize messages: %w", err)
	}
	return summaries, nil
}
