package handlers

import (
	"context"
	"errors"
	"net/http"

	"timeline/internal/accounts"
	"timeline/internal/models"
	"timeline/internal/unipile"

	"github.com/labstack/echo/v4"
)

// AccountSyncer pulls connected accounts from upstream
type AccountSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// PutAccountRequest is the body of an account upsert
type PutAccountRequest struct {
	Provider string `json:"provider" example:"LINKEDIN"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Status   string `json:"status"`
}

// ListAccountsHandler lists connected accounts
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Success 200 {object} models.AccountsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/auth/accounts [get]
func ListAccountsHandler(dir accounts.Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := dir.List(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.AccountsResponse{Accounts: list, Total: len(list)})
	}
}

// AccountsStatusHandler groups accounts by provider family
// @Summary Account connection status
// @Tags accounts
// @Produce json
// @Success 200 {object} models.ConnectionStatus
// @Failure 500 {object} models.ErrorResponse
// @Router /api/auth/accounts/status [get]
func AccountsStatusHandler(dir accounts.Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := accounts.Status(c.Request().Context(), dir)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, status)
	}
}

// PutAccountHandler registers or updates an account
// @Summary Register account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account_id path string true "Account ID"
// @Param request body PutAccountRequest true "Account details"
// @Success 200 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/auth/accounts/{account_id} [put]
func PutAccountHandler(dir accounts.Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req PutAccountRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		}
		if req.Provider == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "provider is required"})
		}

		account := &models.Account{
			ID:       c.Param("account_id"),
			Provider: req.Provider,
			Name:     req.Name,
			Email:    req.Email,
			Status:   req.Status,
		}
		if account.Status == "" {
			account.Status = "OK"
		}
		if err := dir.Put(c.Request().Context(), account); err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, account)
	}
}

// DeleteAccountHandler removes an account from the directory
// @Summary Delete account
// @Tags accounts
// @Param account_id path string true "Account ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/auth/accounts/{account_id} [delete]
func DeleteAccountHandler(dir accounts.Directory) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := dir.Delete(c.Request().Context(), c.Param("account_id"))
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Account not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// SyncAccountsHandler copies the accounts connected upstream into the directory
// @Summary Sync accounts
// @Tags accounts
// @Produce json
// @Success 200 {object} models.SyncAccountsResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/auth/sync-accounts [post]
func SyncAccountsHandler(syncer AccountSyncer) echo.HandlerFunc {
	return func(c echo.Context) error {
		synced, err := syncer.Sync(c.Request().Context())
		if errors.Is(err, unipile.ErrNotConfigured) {
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Messaging API is not configured"})
		}
		if err != nil {
			return c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.SyncAccountsResponse{Success: true, Synced: synced})
	}
}
