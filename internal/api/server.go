package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"propsync/internal/api/handlers"
	"propsync/internal/api/middleware"
	"propsync/internal/config"
	"propsync/internal/database"
	"propsync/internal/events"
	"propsync/internal/logger"
	"propsync/internal/repository"
	"propsync/internal/services/propspace"
	"propsync/internal/sync"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, publisher events.Publisher) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Provider plumbing
	tokens := propspace.NewTokenManager(cfg.PropSpaceBaseURL, cfg.PropSpaceAPIKey, cfg.PropSpaceAPISecret, logger)
	client := propspace.NewClient(cfg.PropSpaceBaseURL, tokens, logger)
	locations := propspace.NewLocationCache(client, logger)
	transformer := propspace.NewTransformer(locations)
	verifier := propspace.NewWebhookVerifier(cfg.WebhookSecret, cfg.AllowUnverifiedWebhooks, logger)

	repo := repository.New(db.DB)
	orchestrator := sync.NewOrchestrator(client, transformer, locations, repo, repo, publisher, logger, cfg.SyncPageSize)

	// Initialize handlers
	propertyHandler := handlers.NewPropertyHandler(db.DB, logger)
	syncHandler := handlers.NewSyncHandler(orchestrator, client, logger)
	webhookHandler := handlers.NewWebhookHandler(verifier, orchestrator, logger)

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Properties (read-only; rows are written by the sync engine)
		properties := v1.Group("/properties")
		{
			properties.GET("", propertyHandler.List)
			properties.GET("/:id", propertyHandler.Get)
		}

		// PropSpace integration
		ps := v1.Group("/propspace")
		{
			ps.POST("/sync", syncHandler.SyncAll)
			ps.POST("/sync/:identifier", syncHandler.SyncOne)
			ps.GET("/webhook", syncHandler.WebhookStatus)
			ps.POST("/webhook/register", syncHandler.RegisterWebhook)
			ps.POST("/webhook", webhookHandler.Handle)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
