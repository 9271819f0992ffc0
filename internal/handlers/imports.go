package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"timeline/internal/accounts"
	"timeline/internal/database"
	"timeline/internal/importer"
	"timeline/internal/models"

	"github.com/labstack/echo/v4"
)

// Importer starts import runs and reports their status
type Importer interface {
	Start(ctx context.Context, accountID, provider string) (string, error)
	Status(ctx context.Context, importID string) (*models.ImportStatus, error)
}

// ImportHistory lists the import runs of an account
type ImportHistory interface {
	ListByAccount(ctx context.Context, accountID string) ([]models.ImportStatus, error)
}

// StartAccountImportHandler starts an import using the provider stored for the account
// @Summary Start import for a connected account
// @Description Looks up the account's provider and starts a background import
// @Tags import
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} models.StartImportResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/import/start/{account_id} [post]
func StartAccountImportHandler(dir accounts.Directory, imports Importer) echo.HandlerFunc {
	return func(c echo.Context) error {
		accountID := c.Param("account_id")
		account, err := dir.Get(c.Request().Context(), accountID)
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Account not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return startImport(c, imports, account.ID, account.Provider)
	}
}

// StartImportHandler starts an import with an explicit provider
// @Summary Start import
// @Description Starts a background import for the given account and provider
// @Tags import
// @Accept json
// @Produce json
// @Param request body models.StartImportRequest true "Account and provider"
// @Success 200 {object} models.StartImportResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/import/start [post]
func StartImportHandler(imports Importer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.StartImportRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		}
		req.AccountID = strings.TrimSpace(req.AccountID)
		if req.AccountID == "" || strings.TrimSpace(req.Provider) == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "account_id and provider are required"})
		}

		return startImport(c, imports, req.AccountID, req.Provider)
	}
}

func startImport(c echo.Context, imports Importer, accountID, provider string) error {
	importID, err := imports.Start(c.Request().Context(), accountID, provider)
	if errors.Is(err, importer.ErrUnsupportedProvider) {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Unsupported provider: " + provider})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, models.StartImportResponse{
		Success:  true,
		ImportID: importID,
		Message:  "Import started",
	})
}

// ImportStatusHandler returns the status of one import run
// @Summary Get import status
// @Tags import
// @Produce json
// @Param import_id path string true "Import ID"
// @Success 200 {object} models.ImportStatus
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/import/status/{import_id} [get]
func ImportStatusHandler(imports Importer) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, err := imports.Status(c.Request().Context(), c.Param("import_id"))
		if errors.Is(err, database.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Import not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, status)
	}
}

// ImportHistoryHandler lists the import runs of one account, newest first
// @Summary List imports of an account
// @Tags import
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} models.ImportHistoryResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/accounts/{account_id}/imports [get]
func ImportHistoryHandler(history ImportHistory) echo.HandlerFunc {
	return func(c echo.Context) error {
		imports, err := history.ListByAccount(c.Request().Context(), c.Param("account_id"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.ImportHistoryResponse{
			Imports: imports,
			Total:   len(imports),
		})
	}
}
