package models

import "strings"

// Provider is the extraction family an account belongs to
type Provider string

const (
	ProviderMail  Provider = "MAIL"
	ProviderChat  Provider = "CHAT"
	ProviderOther Provider = "OTHER"
)

// ParseProvider maps an upstream provider string onto a Provider, case-insensitively
func ParseProvider(s string) Provider {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GOOGLE", "GOOGLE_OAUTH", "GMAIL", "OUTLOOK", "MICROSOFT", "MAIL", "IMAP":
		return ProviderMail
	case "LINKEDIN", "CHAT":
		return ProviderChat
	default:
		return ProviderOther
	}
}

// Account is a connected messaging account
// @Description Connected account
type Account struct {
	ID        string `db:"id" json:"account_id" example:"acc1"`
	Provider  string `db:"provider" json:"provider" example:"GOOGLE"` // Upstream provider name
	Name      string `db:"name" json:"name,omitempty"`
	Email     string `db:"email" json:"email,omitempty"`
	Status    string `db:"status" json:"status,omitempty" example:"connected"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// Kind returns the extraction family of the account
func (a Account) Kind() Provider {
	return ParseProvider(a.Provider)
}

// ProviderConnection describes the accounts of one provider family
type ProviderConnection struct {
	Connected bool      `json:"connected"`
	Accounts  []Account `json:"accounts"`
}

// ConnectionStatus groups accounts by provider family
// @Description Account connection status
type ConnectionStatus struct {
	Mail          ProviderConnection `json:"mail"`
	Chat          ProviderConnection `json:"chat"`
	BothConnected bool               `json:"both_connected"`
	TotalAccounts int                `json:"total_accounts"`
}
