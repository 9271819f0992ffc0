package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"timeline/internal/database"
	"timeline/internal/models"
)

// ErrInvalidTransition is returned for a status change the state machine does not allow
var ErrInvalidTransition = errors.New("invalid import status transition")

// transitions lists the allowed next states. completed and failed are terminal.
var transitions = map[string]map[string]bool{
	models.ImportStarting:   {models.ImportFetching: true, models.ImportFailed: true},
	models.ImportFetching:   {models.ImportProcessing: true, models.ImportCompleted: true, models.ImportFailed: true},
	models.ImportProcessing: {models.ImportProcessing: true, models.ImportCompleted: true, models.ImportFailed: true},
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// StatusStore persists import status rows
type StatusStore interface {
	Create(ctx context.Context, accountID string) (*models.ImportStatus, error)
	Update(ctx context.Context, id string, upd models.ImportStatusUpdate) error
	Get(ctx context.Context, id string) (*models.ImportStatus, error)
}

// Tracker creates and reads import runs
type Tracker struct {
	store StatusStore
	now   func() time.Time
}

// NewTracker creates a tracker backed by store
func NewTracker(store StatusStore) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Begin creates a new run in the starting state
func (t *Tracker) Begin(ctx context.Context, accountID string) (*Run, error) {
	status, err := t.store.Create(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Run{tracker: t, status: *status}, nil
}

// Get returns the persisted status of a run, or database.ErrNotFound
func (t *Tracker) Get(ctx context.Context, importID string) (*models.ImportStatus, error) {
	return t.store.Get(ctx, importID)
}

// Run is the single writer of one import status row
type Run struct {
	tracker *Tracker
	mu      sync.Mutex
	status  models.ImportStatus
}

// ID returns the import id
func (r *Run) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.ID
}

// Status returns a copy of the last written status
func (r *Run) Status() models.ImportStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.status
	s.TotalMessages = copyInt(s.TotalMessages)
	s.ProcessedMessages = copyInt(s.ProcessedMessages)
	s.CompletedAt = copyString(s.CompletedAt)
	s.Error = copyString(s.Error)
	return s
}

// Fetching marks the start of the fetch phase
func (r *Run) Fetching(ctx context.Context) error {
	return r.transition(ctx, models.ImportStatusUpdate{Status: models.ImportFetching})
}

// Processing records the number of fetched records and enters the store phase
func (r *Run) Processing(ctx context.Context, total int) error {
	zero := 0
	return r.transition(ctx, models.ImportStatusUpdate{Status: models.ImportProcessing, Total: &total, Processed: &zero})
}

// Checkpoint persists the running count of stored messages
func (r *Run) Checkpoint(ctx context.Context, processed int) error {
	return r.transition(ctx, models.ImportStatusUpdate{Status: models.ImportProcessing, Processed: &processed})
}

// Complete writes the final stored count and the completion time
func (r *Run) Complete(ctx context.Context, processed int) error {
	completedAt := database.Timestamp(r.tracker.now())
	return r.transition(ctx, models.ImportStatusUpdate{
		Status:      models.ImportCompleted,
		Processed:   &processed,
		CompletedAt: &completedAt,
	})
}

// Fail moves the run to failed, recording cause
func (r *Run) Fail(ctx context.Context, cause error) error {
	upd := models.ImportStatusUpdate{Status: models.ImportFailed}
	if cause != nil {
		msg := cause.Error()
		upd.Error = &msg
	}
	return r.transition(ctx, upd)
}

func (r *Run) transition(ctx context.Context, upd models.ImportStatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !CanTransition(r.status.Status, upd.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.status.Status, upd.Status)
	}

	if err := r.tracker.store.Update(ctx, r.status.ID, upd); err != nil {
		return err
	}

	r.status.Status = upd.Status
	r.status.UpdatedAt = database.Timestamp(r.tracker.now())
	if upd.Total != nil {
		r.status.TotalMessages = copyInt(upd.Total)
	}
	if upd.Processed != nil {
		r.status.ProcessedMessages = copyInt(upd.Processed)
	}
	if upd.CompletedAt != nil {
		r.status.CompletedAt = copyString(upd.CompletedAt)
	}
	if upd.Error != nil {
		r.status.Error = copyString(upd.Error)
	}
	return nil
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
