package server

import (
	"context"
	"time"

	"timeline/internal/accounts"
	"timeline/internal/auth"
	"timeline/internal/config"
	"timeline/internal/handlers"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Services are the collaborators the routes are served from
type Services struct {
	Directory accounts.Directory
	Importer  handlers.Importer
	History   handlers.ImportHistory
	Timeline  handlers.TimelineReader
	Syncer    handlers.AccountSyncer
	Refresher handlers.AccountRefresher
	Ingester  handlers.Ingester
	Profiles  handlers.ProfileFetcher
}

// Server represents the application server
type Server struct {
	echo     *echo.Echo
	db       *sqlx.DB
	config   *config.Config
	logger   zerolog.Logger
	auth     *auth.Manager
	services Services
}

// New creates a new server instance
func New(cfg *config.Config, db *sqlx.DB, services Services, logger zerolog.Logger) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		logger:   logger,
		auth:     auth.NewManager(cfg.AdminUsername, cfg.AdminPassword),
		services: services,
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	// Middleware
	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{s.config.FrontendURL},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Hide Echo banner
	s.echo.HideBanner = true

	if !s.auth.Enabled() {
		s.logger.Warn().Msg("ADMIN_PASSWORD not set, mutating routes are unprotected")
	}

	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")
	admin := auth.Middleware(s.auth)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.db))

	api.GET("/", handlers.RootHandler(s.config.Version))
	api.POST("/admin/login", handlers.AdminLoginHandler(s.auth))

	// Imports
	api.POST("/import/start", handlers.StartImportHandler(s.services.Importer), admin)
	api.POST("/import/start/:account_id", handlers.StartAccountImportHandler(s.services.Directory, s.services.Importer), admin)
	api.GET("/import/status/:import_id", handlers.ImportStatusHandler(s.services.Importer))
	api.GET("/accounts/:account_id/imports", handlers.ImportHistoryHandler(s.services.History))

	// Timeline
	api.GET("/people", handlers.PeopleHandler(s.services.Timeline))
	api.GET("/people/:person_id/messages", handlers.PersonMessagesHandler(s.services.Timeline))
	api.GET("/messages", handlers.RecentMessagesHandler(s.services.Timeline))
	api.GET("/stats", handlers.StatsHandler(s.services.Timeline))

	// Accounts
	api.GET("/auth/accounts", handlers.ListAccountsHandler(s.services.Directory))
	api.GET("/auth/accounts/status", handlers.AccountsStatusHandler(s.services.Directory))
	api.PUT("/auth/accounts/:account_id", handlers.PutAccountHandler(s.services.Directory), admin)
	api.DELETE("/auth/accounts/:account_id", handlers.DeleteAccountHandler(s.services.Directory), admin)
	api.POST("/auth/sync-accounts", handlers.SyncAccountsHandler(s.services.Syncer), admin)

	api.POST("/webhooks/unipile", handlers.UnipileWebhookHandler(
		s.services.Directory, s.services.Ingester, s.services.Refresher, s.config.WebhookSecret))

	api.GET("/linkedin/profile/:account_id", handlers.ProfileHandler(s.services.Profiles, s.config.ProfileIdentifierChain))
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
