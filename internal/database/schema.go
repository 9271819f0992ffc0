package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Column types stay within what PostgreSQL, MySQL and SQLite all accept
var tables = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR(128) PRIMARY KEY,
		provider VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(64) NOT NULL DEFAULT '',
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS people (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NULL,
		merged_person_id VARCHAR(64) NULL,
		created_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id VARCHAR(64) PRIMARY KEY,
		person_id VARCHAR(64) NOT NULL,
		account_id VARCHAR(128) NOT NULL,
		channel VARCHAR(32) NOT NULL,
		sender VARCHAR(512) NOT NULL,
		recipient VARCHAR(512) NOT NULL,
		subject TEXT NOT NULL,
		content TEXT NOT NULL,
		sent_at VARCHAR(64) NOT NULL,
		thread_id VARCHAR(255) NULL,
		external_id VARCHAR(255) NULL,
		created_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS import_status (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(128) NOT NULL,
		status VARCHAR(32) NOT NULL,
		total_messages INTEGER NULL,
		processed_messages INTEGER NULL,
		completed_at VARCHAR(40) NULL,
		error_message TEXT NULL,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_people_email ON people(email)`,
	`CREATE INDEX IF NOT EXISTS idx_people_name ON people(name)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_person_id ON messages(person_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_account_external ON messages(account_id, external_id)`,
	`CREATE INDEX IF NOT EXISTS idx_import_status_account ON import_status(account_id)`,
}

// TableNames lists the tables Migrate creates
var TableNames = []string{"accounts", "people", "messages", "import_status"}

// MissingTables returns the tables that cannot be read, in TableNames order
func MissingTables(ctx context.Context, db *sqlx.DB) []string {
	missing := []string{}
	for _, table := range TableNames {
		rows, err := db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		if err != nil {
			missing = append(missing, table)
			continue
		}
		_ = rows.Close()
	}
	return missing
}

// Migrate creates the tables and indexes used by the repositories
func Migrate(ctx context.Context, db *sqlx.DB, logger zerolog.Logger) error {
	for _, query := range tables {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, query := range indexes {
		if _, err := db.ExecContext(ctx, query); err != nil {
			// MySQL has no IF NOT EXISTS for indexes; an existing index is fine
			logger.Debug().Err(err).Str("query", query).Msg("Skipping index")
		}
	}

	return nil
}
