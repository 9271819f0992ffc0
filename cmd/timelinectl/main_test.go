package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"timeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/emails":
			_, _ = w.Write([]byte(`{"items":[{"id":"m1","from_attendee":{"identifier":"jane.roe@x.com"},` +
				`"body_plain":"Hello there","timestamp":"2024-01-01T00:00:00Z"}]}`))
		case "/accounts":
			_, _ = w.Write([]byte(`{"items":[{"id":"acc1","type":"GOOGLE_OAUTH"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	t.Setenv("DATABASE_URL", "sqlite://")
	t.Setenv("UNIPILE_BASE_URL", upstream.URL)
	t.Setenv("UNIPILE_API_KEY", "test-key")
	t.Setenv("PAGE_DELAY_MS", "0")
	t.Setenv("NATS_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "import", "acc1", "--provider", "GOOGLE")
	require.NoError(t, err)

	var status models.ImportStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, models.ImportCompleted, status.Status)
	require.NotNil(t, status.ProcessedMessages)
	assert.Equal(t, 1, *status.ProcessedMessages)
}

func TestImportCommand_UnknownAccountWithoutProvider(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "import", "acc1")
	assert.ErrorContains(t, err, "--provider")
}

func TestImportCommand_UnsupportedProvider(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "import", "acc1", "--provider", "TELEGRAM")
	require.Error(t, err)

	var status models.ImportStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, models.ImportFailed, status.Status)
}

func TestAccountsSyncCommand(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "accounts", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "synced 1 accounts")
}

func TestStatusCommand_NotFound(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "status", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestArgsValidation(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "import")
	assert.Error(t, err)
}
