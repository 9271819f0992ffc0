// Package auth guards mutating routes with short-lived admin bearer tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"timeline/internal/models"

	"github.com/labstack/echo/v4"
)

// ErrInvalidCredentials is returned for a wrong username or password
var ErrInvalidCredentials = errors.New("invalid credentials")

// DefaultTokenExpiry is how long an issued token stays valid
const DefaultTokenExpiry = 24 * time.Hour

// Manager issues and validates admin tokens
type Manager struct {
	username    string
	password    string
	tokens      map[string]time.Time
	mu          sync.Mutex
	tokenExpiry time.Duration
	now         func() time.Time
}

// NewManager creates a new authentication manager. An empty password disables the guard.
func NewManager(username, password string) *Manager {
	return &Manager{
		username:    username,
		password:    password,
		tokens:      make(map[string]time.Time),
		tokenExpiry: DefaultTokenExpiry,
		now:         time.Now,
	}
}

// Enabled reports whether an admin password is configured
func (am *Manager) Enabled() bool {
	return am.password != ""
}

// TokenExpiry returns the lifetime of issued tokens
func (am *Manager) TokenExpiry() time.Duration {
	return am.tokenExpiry
}

// Authenticate validates username and password and returns a token
func (am *Manager) Authenticate(username, password string) (string, error) {
	if !am.Enabled() {
		return "", ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(am.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(am.password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	am.mu.Lock()
	defer am.mu.Unlock()
	am.cleanupExpiredTokens()
	am.tokens[token] = am.now().Add(am.tokenExpiry)

	return token, nil
}

// ValidateToken checks if a token is valid, dropping it once expired
func (am *Manager) ValidateToken(token string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()

	expiry, exists := am.tokens[token]
	if !exists {
		return false
	}
	if am.now().After(expiry) {
		delete(am.tokens, token)
		return false
	}
	return true
}

// cleanupExpiredTokens must be called with mu held
func (am *Manager) cleanupExpiredTokens() {
	now := am.now()
	for token, expiry := range am.tokens {
		if now.After(expiry) {
			delete(am.tokens, token)
		}
	}
}

// Middleware rejects requests without a valid token. It passes everything
// through when the manager has no password configured.
func Middleware(authManager *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !authManager.Enabled() {
				return next(c)
			}

			// Authorization header first, then the token query parameter
			token := c.Request().Header.Get(echo.HeaderAuthorization)
			if token != "" {
				token = strings.TrimPrefix(token, "Bearer ")
			} else {
				token = c.QueryParam("token")
			}

			if token == "" || !authManager.ValidateToken(token) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error: "Unauthorized. Please login first.",
				})
			}

			c.Set("auth_token", token)
			return next(c)
		}
	}
}
