package models

// Import run states
const (
	ImportStarting   = "starting"
	ImportFetching   = "fetching"
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
)

// ImportStatus is the persisted progress of one import run
// @Description Import run progress
type ImportStatus struct {
	ID                string  `db:"id" json:"id"`
	AccountID         string  `db:"account_id" json:"account_id"`
	Status            string  `db:"status" json:"status" example:"processing"`
	TotalMessages     *int    `db:"total_messages" json:"total_messages,omitempty"`
	ProcessedMessages *int    `db:"processed_messages" json:"processed_messages,omitempty"`
	CompletedAt       *string `db:"completed_at" json:"completed_at,omitempty"`
	Error             *string `db:"error_message" json:"error,omitempty"`
	CreatedAt         string  `db:"created_at" json:"created_at"`
	UpdatedAt         string  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether no further transition is allowed
func (s ImportStatus) Terminal() bool {
	return IsTerminalState(s.Status)
}

// IsTerminalState reports whether state is completed or failed
func IsTerminalState(state string) bool {
	return state == ImportCompleted || state == ImportFailed
}

// ImportStatusUpdate carries the optional fields of a status transition
type ImportStatusUpdate struct {
	Status      string
	Total       *int
	Processed   *int
	CompletedAt *string
	Error       *string
}
