package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"timeline/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const importColumns = `id, account_id, status, total_messages, processed_messages, completed_at, error_message, created_at, updated_at`

// ImportStatusRepository persists import run progress
type ImportStatusRepository struct {
	db *sqlx.DB
}

// NewImportStatusRepository creates a new import status repository
func NewImportStatusRepository(db *sqlx.DB) *ImportStatusRepository {
	return &ImportStatusRepository{db: db}
}

// Create inserts a new run for accountID in the starting state
func (r *ImportStatusRepository) Create(ctx context.Context, accountID string) (*models.ImportStatus, error) {
	ts := now()
	status := &models.ImportStatus{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Status:    models.ImportStarting,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	query := r.db.Rebind(`INSERT INTO import_status (id, account_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, status.ID, status.AccountID, status.Status, status.CreatedAt, status.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create import status: %w", err)
	}
	return status, nil
}

// Update sets the status and whichever optional fields are present
func (r *ImportStatusRepository) Update(ctx context.Context, id string, upd models.ImportStatusUpdate) error {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{upd.Status, now()}

	if upd.Total != nil {
		sets = append(sets, "total_messages = ?")
		args = append(args, *upd.Total)
	}
	if upd.Processed != nil {
		sets = append(sets, "processed_messages = ?")
		args = append(args, *upd.Processed)
	}
	if upd.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *upd.CompletedAt)
	}
	if upd.Error != nil {
		sets = append(sets, "error_message = ?")
		args = append(args, *upd.Error)
	}
	args = append(args, id)

	query := r.db.Rebind(`UPDATE import_status SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update import status: %w", err)
	}
	return nil
}

// Get returns one import run or ErrNotFound
func (r *ImportStatusRepository) Get(ctx context.Context, id string) (*models.ImportStatus, error) {
	var status models.ImportStatus
	query := r.db.Rebind(`SELECT ` + importColumns + ` FROM import_status WHERE id = ?`)
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import status: %w", err)
	}
	return &status, nil
}

// ListByAccount returns the runs of one account, newest first
func (r *ImportStatusRepository) ListByAccount(ctx context.Context, accountID string) ([]models.ImportStatus, error) {
	statuses := []models.ImportStatus{}
	query := r.db.Rebind(`SELECT ` + importColumns + ` FROM import_status WHERE account_id = ? ORDER BY created_at DESC, id`)
	if err := r.db.SelectContext(ctx, &statuses, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list import statuses: %w", err)
	}
	return statuses, nil
}
