package accounts

import (
	"context"
	"errors"
	"testing"

	"timeline/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	accounts []models.RawRecord
	err      error
}

func (f fakeLister) ListAccounts(context.Context) ([]models.RawRecord, error) {
	return f.accounts, f.err
}

func (f fakeLister) GetAccount(_ context.Context, accountID string) (models.RawRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, raw := range f.accounts {
		if raw["id"] == accountID {
			return raw, nil
		}
	}
	return models.RawRecord{}, nil
}

func TestFromRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawRecord
		want models.Account
		ok   bool
	}{
		{
			name: "google oauth with mailbox",
			raw: models.RawRecord{
				"id":   "g1",
				"type": "GOOGLE_OAUTH",
				"name": "Work",
				"connection_params": map[string]any{
					"mail": map[string]any{"username": "me@example.com"},
				},
			},
			want: models.Account{ID: "g1", Provider: "GOOGLE", Name: "Work", Email: "me@example.com", Status: "OK"},
			ok:   true,
		},
		{
			name: "name used as email",
			raw:  models.RawRecord{"id": "g2", "type": "GOOGLE", "name": "me@example.com"},
			want: models.Account{ID: "g2", Provider: "GOOGLE", Name: "me@example.com", Email: "me@example.com", Status: "OK"},
			ok:   true,
		},
		{
			name: "linkedin with source status",
			raw: models.RawRecord{
				"id":      "l1",
				"type":    "linkedin",
				"name":    "Jane Roe",
				"sources": []any{map[string]any{"status": "CREDENTIALS"}},
			},
			want: models.Account{ID: "l1", Provider: "LINKEDIN", Name: "Jane Roe", Status: "CREDENTIALS"},
			ok:   true,
		},
		{
			name: "missing id",
			raw:  models.RawRecord{"type": "GOOGLE"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromRaw(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSyncer_Sync(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	syncer := NewSyncer(fakeLister{accounts: []models.RawRecord{
		{"id": "g1", "type": "GOOGLE_OAUTH", "name": "me@example.com"},
		{"type": "LINKEDIN"},
		{"id": "l1", "type": "LINKEDIN", "name": "Jane"},
	}}, dir, zerolog.Nop())

	synced, err := syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	list, err := dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// Re-sync updates in place
	synced, err = syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	list, err = dir.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSyncer_UpstreamError(t *testing.T) {
	syncer := NewSyncer(fakeLister{err: errors.New("401")}, newTestDirectory(t), zerolog.Nop())

	synced, err := syncer.Sync(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, synced)
}

func TestSyncer_SyncOne(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	syncer := NewSyncer(fakeLister{accounts: []models.RawRecord{
		{"id": "l1", "type": "LINKEDIN", "name": "Jane", "sources": []any{map[string]any{"status": "CREDENTIALS"}}},
	}}, dir, zerolog.Nop())

	account, err := syncer.SyncOne(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "CREDENTIALS", account.Status)

	stored, err := dir.Get(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "LINKEDIN", stored.Provider)

	_, err = syncer.SyncOne(ctx, "missing")
	assert.Error(t, err)

	_, err = NewSyncer(fakeLister{err: errors.New("502")}, dir, zerolog.Nop()).SyncOne(ctx, "l1")
	assert.Error(t, err)
}
