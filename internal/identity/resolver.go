// Package identity maps message participants onto canonical person ids.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"timeline/internal/database"
	"timeline/internal/models"
	"timeline/internal/names"

	"github.com/google/uuid"
)

// ErrInvalidInput is returned when neither email nor name is given
var ErrInvalidInput = errors.New("identity: email or name required")

// PersonStore is the subset of the person repository the resolver needs.
// Lookups return database.ErrNotFound when nothing matches.
type PersonStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Person, error)
	FindByName(ctx context.Context, name string) (*models.Person, error)
	Insert(ctx context.Context, p *models.Person) error
}

// Resolver links identities by exact email or exact name. It only ever inserts rows.
type Resolver struct {
	store PersonStore
	mu    sync.Mutex
}

// NewResolver creates a resolver backed by store
func NewResolver(store PersonStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the canonical person id for (email, name), creating rows as needed
func (r *Resolver) Resolve(ctx context.Context, email, name string) (string, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" && name == "" {
		return "", ErrInvalidInput
	}

	// Serialize lookups and inserts so concurrent imports do not create twin rows
	r.mu.Lock()
	defer r.mu.Unlock()

	validEmail := strings.Contains(email, "@")

	if validEmail {
		p, err := r.store.FindByEmail(ctx, email)
		switch {
		case err == nil:
			return p.CanonicalID(), nil
		case !errors.Is(err, database.ErrNotFound):
			return "", fmt.Errorf("lookup by email: %w", err)
		}
	}

	if name != "" {
		p, err := r.store.FindByName(ctx, name)
		switch {
		case err == nil:
			canonical := p.CanonicalID()
			link := &models.Person{
				Name:           name,
				Email:          optional(email, validEmail),
				MergedPersonID: &canonical,
			}
			if err := r.store.Insert(ctx, link); err != nil {
				return "", fmt.Errorf("link person: %w", err)
			}
			return canonical, nil
		case !errors.Is(err, database.ErrNotFound):
			return "", fmt.Errorf("lookup by name: %w", err)
		}
	}

	if name == "" {
		name = names.FromEmail(email)
	}
	id := uuid.NewString()
	person := &models.Person{
		ID:             id,
		Name:           name,
		Email:          optional(email, validEmail),
		MergedPersonID: &id,
	}
	if err := r.store.Insert(ctx, person); err != nil {
		return "", fmt.Errorf("create person: %w", err)
	}
	return id, nil
}

func optional(s string, keep bool) *string {
	if !keep || s == "" {
		return nil
	}
	return &s
}
