package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"timeline/internal/accounts"
	"timeline/internal/extract"
	"timeline/internal/importer"
	"timeline/internal/models"

	"github.com/labstack/echo/v4"
)

// WebhookSecretHeader carries the shared secret of pushed events
const WebhookSecretHeader = "X-Webhook-Secret"

// Ingester stores pushed records through the import pipeline
type Ingester interface {
	Ingest(ctx context.Context, accountID, provider string, records []models.RawRecord) (int, error)
}

// AccountRefresher reloads one account from upstream
type AccountRefresher interface {
	SyncOne(ctx context.Context, accountID string) (*models.Account, error)
}

// UnipileWebhookHandler receives events pushed by the messaging API.
// New mail and chat messages are stored right away; account status events refresh the account.
// @Summary Messaging API webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string false "Shared secret, required when configured"
// @Success 200 {object} models.WebhookResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/webhooks/unipile [post]
func UnipileWebhookHandler(dir accounts.Directory, ingester Ingester, refresher AccountRefresher, secret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if secret != "" {
			got := c.Request().Header.Get(WebhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid webhook secret"})
			}
		}

		var payload models.RawRecord
		decoder := json.NewDecoder(c.Request().Body)
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		}

		accountID := strings.TrimSpace(extract.String(payload["account_id"]))
		if accountID == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "account_id is required"})
		}

		ctx := c.Request().Context()
		event := strings.ToLower(extract.String(payload["event"]))

		switch {
		case event == extract.EventMailReceived || event == extract.EventMessageReceived:
			return ingestPushed(c, dir, ingester, accountID, event, payload)
		case event == "" && extract.String(payload["status"]) != "":
			if _, err := refresher.SyncOne(ctx, accountID); err != nil {
				return c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
			}
			return c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Message: "Account refreshed"})
		default:
			return c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Event: event, Message: "Ignored event"})
		}
	}
}

func ingestPushed(c echo.Context, dir accounts.Directory, ingester Ingester, accountID, event string, payload models.RawRecord) error {
	ctx := c.Request().Context()

	account, err := dir.Get(ctx, accountID)
	if errors.Is(err, accounts.ErrAccountNotFound) {
		// Acknowledge so the sender does not retry events for accounts we never connected
		return c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Event: event, Message: "Unknown account"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	stored, err := ingester.Ingest(ctx, account.ID, account.Provider, extract.PushedRecords(event, payload))
	if errors.Is(err, importer.ErrUnsupportedProvider) {
		return c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Event: event, Message: "Unsupported provider"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, models.WebhookResponse{Success: true, Event: event, Stored: stored})
}
