package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"timeline/internal/models"
	"timeline/internal/timeline"

	"github.com/labstack/echo/v4"
)

// TimelineReader answers the read-side queries
type TimelineReader interface {
	ListPeople(ctx context.Context) ([]models.PersonAggregate, error)
	ListMessagesForPerson(ctx context.Context, personID string) ([]models.Message, error)
	Recent(ctx context.Context, limit int) ([]models.RecentMessage, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// PeopleHandler lists people grouped by name similarity
// @Summary List people
// @Description People rows grouped by name similarity with aggregated message counts, latest first
// @Tags timeline
// @Produce json
// @Success 200 {object} models.PeopleResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/people [get]
func PeopleHandler(reader TimelineReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		people, err := reader.ListPeople(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.PeopleResponse{People: people, Total: len(people)})
	}
}

// PersonMessagesHandler lists the messages of a person and everyone grouped with them
// @Summary List messages for a person
// @Tags timeline
// @Produce json
// @Param person_id path string true "Person ID"
// @Success 200 {object} models.MessagesResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/people/{person_id}/messages [get]
func PersonMessagesHandler(reader TimelineReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		messages, err := reader.ListMessagesForPerson(c.Request().Context(), c.Param("person_id"))
		if errors.Is(err, timeline.ErrPersonNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Person not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.MessagesResponse{Messages: messages, Total: len(messages)})
	}
}

// RecentMessagesHandler lists the latest messages across everyone
// @Summary List recent messages
// @Tags timeline
// @Produce json
// @Param limit query int false "Number of messages" default(20)
// @Success 200 {object} models.RecentMessagesResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/messages [get]
func RecentMessagesHandler(reader TimelineReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := timeline.DefaultRecentLimit
		if l := c.QueryParam("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed <= 0 {
				return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "limit must be a positive integer"})
			}
			limit = parsed
		}

		messages, err := reader.Recent(c.Request().Context(), limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.RecentMessagesResponse{Messages: messages, Total: len(messages)})
	}
}

// StatsHandler returns global counters
// @Summary Get stats
// @Tags timeline
// @Produce json
// @Success 200 {object} models.Stats
// @Failure 500 {object} models.ErrorResponse
// @Router /api/stats [get]
func StatsHandler(reader TimelineReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := reader.Stats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, stats)
	}
}
