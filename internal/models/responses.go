package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Driver    string        `json:"driver,omitempty" example:"postgres"`        // SQL driver in use
	Schema    string        `json:"schema,omitempty" example:"migrated"`        // migrated or incomplete
	Missing   []string      `json:"missing_tables,omitempty"`                   // Tables that could not be read
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// ErrorResponse is returned by every failing endpoint
// @Description Error response
type ErrorResponse struct {
	Error string `json:"error" example:"import not found"`
}

// StartImportRequest starts an import with an explicit provider
// @Description Start import request payload
type StartImportRequest struct {
	AccountID string `json:"account_id" example:"acc1"`
	Provider  string `json:"provider" example:"GOOGLE"`
}

// StartImportResponse is returned once an import run has been scheduled
// @Description Start import response payload
type StartImportResponse struct {
	Success  bool   `json:"success" example:"true"`
	ImportID string `json:"import_id" example:"5d1c9f0e-6a0b-4f61-8d1e-8f7d5b9c2a10"`
	Message  string `json:"message" example:"Import started"`
}

// ImportHistoryResponse lists the import runs of one account
type ImportHistoryResponse struct {
	Imports []ImportStatus `json:"imports"`
	Total   int            `json:"total"`
}

// PeopleResponse lists grouped people
type PeopleResponse struct {
	People []PersonAggregate `json:"people"`
	Total  int               `json:"total"`
}

// MessagesResponse lists messages of one person
type MessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}

// RecentMessagesResponse lists the latest messages across people
type RecentMessagesResponse struct {
	Messages []RecentMessage `json:"messages"`
	Total    int             `json:"total"`
}

// AccountsResponse lists connected accounts
type AccountsResponse struct {
	Accounts []Account `json:"accounts"`
	Total    int       `json:"total"`
}

// SyncAccountsResponse reports how many accounts were pulled from upstream
type SyncAccountsResponse struct {
	Success bool `json:"success"`
	Synced  int  `json:"synced"`
}

// LoginRequest represents admin login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the admin bearer token
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // Seconds
}

// WebhookResponse acknowledges a pushed event
type WebhookResponse struct {
	Success bool   `json:"success"`
	Event   string `json:"event,omitempty"`
	Message string `json:"message,omitempty"`
	Stored  int    `json:"stored"`
}
