package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"timeline/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const personColumns = `id, name, email, merged_person_id, created_at`

// PersonRepository stores person identity rows. Rows are never updated or deleted.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// Insert stores p, generating its id and creation time when unset
func (r *PersonRepository) Insert(ctx context.Context, p *models.Person) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == "" {
		p.CreatedAt = now()
	}

	query := r.db.Rebind(`INSERT INTO people (` + personColumns + `) VALUES (?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Email, p.MergedPersonID, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// FindByEmail returns the oldest person row with exactly this email
func (r *PersonRepository) FindByEmail(ctx context.Context, email string) (*models.Person, error) {
	return r.findOne(ctx, "email", email)
}

// FindByName returns the oldest person row with exactly this name
func (r *PersonRepository) FindByName(ctx context.Context, name string) (*models.Person, error) {
	return r.findOne(ctx, "name", name)
}

func (r *PersonRepository) findOne(ctx context.Context, column, value string) (*models.Person, error) {
	query := r.db.Rebind(`SELECT ` + personColumns + ` FROM people WHERE ` + column + ` = ? ORDER BY created_at, id LIMIT 1`)

	var p models.Person
	if err := r.db.GetContext(ctx, &p, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find person by %s: %w", column, err)
	}
	return &p, nil
}

// FindByIDs returns the person rows whose id is in ids
func (r *PersonRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Person, error) {
	if len(ids) == 0 {
		return []models.Person{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+personColumns+` FROM people WHERE id IN (?) ORDER BY created_at, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build person id query: %w", err)
	}

	people := []models.Person{}
	if err := r.db.SelectContext(ctx, &people, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to find people by ids: %w", err)
	}
	return people, nil
}

// List returns every person row, oldest first
func (r *PersonRepository) List(ctx context.Context) ([]models.Person, error) {
	people := []models.Person{}
	if err := r.db.SelectContext(ctx, &people, `SELECT `+personColumns+` FROM people ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// CountCanonical counts distinct canonical persons
func (r *PersonRepository) CountCanonical(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT COALESCE(merged_person_id, id)) FROM people`); err != nil {
		return 0, fmt.Errorf("failed to count people: %w", err)
	}
	return count, nil
}
