package handlers

import (
	"context"
	"errors"
	"net/http"

	"timeline/internal/models"
	"timeline/internal/unipile"

	"github.com/labstack/echo/v4"
)

// ProfileFetcher resolves a profile through an ordered list of identifiers
type ProfileFetcher interface {
	GetProfile(ctx context.Context, accountID string, candidates []string) (models.RawRecord, error)
}

// ProfileHandler looks up a chat contact's profile. Identifier query parameters are
// tried in the order given by chain; the first non-empty profile wins.
// @Summary Get contact profile
// @Tags profile
// @Produce json
// @Param account_id path string true "Account ID"
// @Param public_identifier query string false "Public identifier"
// @Param id query string false "Provider id"
// @Param member_urn query string false "Member URN"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/linkedin/profile/{account_id} [get]
func ProfileHandler(fetcher ProfileFetcher, chain []string) echo.HandlerFunc {
	return func(c echo.Context) error {
		candidates := unipile.ProfileCandidates(chain, c.QueryParam)
		if len(candidates) == 0 {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No profile identifier given"})
		}

		profile, err := fetcher.GetProfile(c.Request().Context(), c.Param("account_id"), candidates)
		switch {
		case errors.Is(err, unipile.ErrNotConfigured):
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Messaging API is not configured"})
		case errors.Is(err, unipile.ErrProfileNotFound):
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Profile not found"})
		case err != nil:
			return c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, profile)
	}
}
