package models

// Channel identifies where a stored message came from
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelLinkedIn Channel = "linkedin"
)

// RawRecord is one provider-native payload as returned by the messaging API
type RawRecord map[string]any

// Person is one identity row. Several rows may share a canonical person through MergedPersonID.
type Person struct {
	ID             string  `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Email          *string `db:"email" json:"email,omitempty"`
	MergedPersonID *string `db:"merged_person_id" json:"merged_person_id,omitempty"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
}

// CanonicalID returns the id all messages of this person converge on
func (p Person) CanonicalID() string {
	if p.MergedPersonID != nil && *p.MergedPersonID != "" {
		return *p.MergedPersonID
	}
	return p.ID
}

// EmailValue returns the email or an empty string
func (p Person) EmailValue() string {
	if p.Email == nil {
		return ""
	}
	return *p.Email
}

// Message is a normalized message attributed to one person row
type Message struct {
	ID         string  `db:"id" json:"id"`
	PersonID   string  `db:"person_id" json:"person_id"`
	AccountID  string  `db:"account_id" json:"account_id"`
	Channel    string  `db:"channel" json:"channel"`
	Sender     string  `db:"sender" json:"sender"`
	Recipient  string  `db:"recipient" json:"recipient"`
	Subject    string  `db:"subject" json:"subject"`
	Content    string  `db:"content" json:"content"`
	Timestamp  string  `db:"sent_at" json:"timestamp"` // ISO-8601
	ThreadID   *string `db:"thread_id" json:"thread_id,omitempty"`
	ExternalID *string `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  string  `db:"created_at" json:"created_at"`
}

// RecentMessage is a message joined with the person it is attributed to
type RecentMessage struct {
	Message
	PersonName  *string `db:"person_name" json:"person_name,omitempty"`
	PersonEmail *string `db:"person_email" json:"person_email,omitempty"`
}

// MessageSummary aggregates one person row's messages on one channel
type MessageSummary struct {
	PersonID      string `db:"person_id"`
	Channel       string `db:"channel"`
	MessageCount  int    `db:"message_count"`
	LastMessageAt string `db:"last_message_at"`
}

// PersonAggregate is a read-time group of person rows believed to be the same human
// @Description Person with aggregated message information
type PersonAggregate struct {
	ID            string   `json:"id" example:"0b6f9a7e-3c1d-4a39-9b61-2f0a7c5d1e22"` // Representative person id
	Name          string   `json:"name" example:"Jane Roe"`
	Email         string   `json:"email,omitempty" example:"jane.roe@example.com"`
	PersonIDs     []string `json:"person_ids"`                        // Every person row in the group
	MessageCount  int      `json:"message_count" example:"12"`        // Messages across all rows
	Channels      []string `json:"channels"`                          // Distinct channels seen
	LastMessageAt string   `json:"last_message_at,omitempty" example:"2024-01-01T00:00:00Z"`
}

// Stats holds global counters for the dashboard
// @Description Global counters
type Stats struct {
	TotalPeople   int            `json:"total_people" example:"42"`
	TotalMessages int            `json:"total_messages" example:"1200"`
	Channels      map[string]int `json:"channels"`
}
