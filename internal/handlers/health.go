package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"timeline/internal/database"
	"timeline/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles basic health check requests
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func HealthHandler(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		response := models.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   version,
		}

		return c.JSON(http.StatusOK, response)
	}
}

// DBHealthHandler reports store connectivity and whether every table is in place
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} models.DBHealthResponse
// @Failure 503 {object} models.DBHealthResponse
// @Router /healthz/db [get]
func DBHealthHandler(db *sqlx.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		response := models.DBHealthResponse{
			Status:    "unhealthy",
			Timestamp: time.Now().UTC(),
		}
		if db == nil {
			response.Error = "Database connection not initialized"
			return c.JSON(http.StatusServiceUnavailable, response)
		}
		response.Driver = db.DriverName()

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := db.PingContext(ctx)
		response.Latency = time.Since(start)
		if err != nil {
			response.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, response)
		}
		response.Connected = true

		if missing := database.MissingTables(ctx, db); len(missing) > 0 {
			response.Schema = "incomplete"
			response.Missing = missing
			response.Error = fmt.Sprintf("Tables not readable: %s (run timelinectl migrate)", strings.Join(missing, ", "))
			return c.JSON(http.StatusServiceUnavailable, response)
		}

		response.Schema = "migrated"
		response.Status = "healthy"
		return c.JSON(http.StatusOK, response)
	}
}

// RootHandler handles requests to the root endpoint
func RootHandler(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Timeline API",
			"version": version,
			"status":  "running",
		})
	}
}
