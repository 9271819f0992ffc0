// Package unipile is a small client for the Unipile messaging API.
package unipile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"timeline/internal/models"
)

var (
	// ErrNotConfigured is returned when no base URL or API key is set
	ErrNotConfigured = errors.New("unipile: client not configured")
	// ErrProfileNotFound is returned when no identifier in the fallback chain yields a profile
	ErrProfileNotFound = errors.New("unipile: profile not found")
)

// APIError is a non-200 answer from the API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Page is one cursor-paginated list response
type Page struct {
	Items  []models.RawRecord `json:"items"`
	Cursor string             `json:"cursor"`
}

// Client talks to the API with an X-API-KEY header and a bounded timeout
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether the client can make requests
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// ListThreads returns one page of chat threads for an account
func (c *Client) ListThreads(ctx context.Context, accountID, cursor string, limit int) (Page, error) {
	params := url.Values{}
	params.Set("account_id", accountID)
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var page Page
	if err := c.get(ctx, "/chats", params, &page); err != nil {
		return Page{}, fmt.Errorf("failed to list chats: %w", err)
	}
	return page, nil
}

// ListThreadMessages returns up to limit messages of one chat thread
func (c *Client) ListThreadMessages(ctx context.Context, threadID string, limit int) ([]models.RawRecord, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var page Page
	if err := c.get(ctx, "/chats/"+url.PathEscape(threadID)+"/messages", params, &page); err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return page.Items, nil
}

// ListMail returns up to limit of the most recent emails of an account
func (c *Client) ListMail(ctx context.Context, accountID string, limit int) ([]models.RawRecord, error) {
	params := url.Values{}
	params.Set("account_id", accountID)
	params.Set("limit", strconv.Itoa(limit))

	var page Page
	if err := c.get(ctx, "/emails", params, &page); err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return page.Items, nil
}

// ListAccounts returns every account connected upstream
func (c *Client) ListAccounts(ctx context.Context) ([]models.RawRecord, error) {
	var page Page
	if err := c.get(ctx, "/accounts", nil, &page); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return page.Items, nil
}

// GetAccount returns one upstream account
func (c *Client) GetAccount(ctx context.Context, accountID string) (models.RawRecord, error) {
	var account models.RawRecord
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID), nil, &account); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetProfile tries each candidate identifier in order and returns the first non-empty profile
func (c *Client) GetProfile(ctx context.Context, accountID string, candidates []string) (models.RawRecord, error) {
	params := url.Values{}
	params.Set("account_id", accountID)

	lastErr := ErrProfileNotFound
	for _, identifier := range candidates {
		if identifier == "" {
			continue
		}
		var profile models.RawRecord
		if err := c.get(ctx, "/users/"+url.PathEscape(identifier), params, &profile); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %s: %v", ErrProfileNotFound, identifier, err)
			continue
		}
		if len(profile) > 0 {
			return profile, nil
		}
	}
	return nil, lastErr
}

// ProfileCandidates orders identifier values by the configured field chain
func ProfileCandidates(chain []string, value func(field string) string) []string {
	candidates := make([]string, 0, len(chain))
	for _, field := range chain {
		if v := value(field); v != "" {
			candidates = append(candidates, v)
		}
	}
	return candidates
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
