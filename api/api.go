package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/echolab/echotext/pkg/runlog/registry"
	"github.com/echolab/echotext/pkg/vector"
)

// Server is the API server for browsing runs and querying embeddings.
type Server struct {
	config  Config
	runs    *registry.Registry
	vectors vector.Driver
	logger  *zap.Logger
	app     *fiber.App
}

// NewServer creates a new API server.
// The registry and vector driver are injected to allow sharing with the CLI
// commands that populate them.
func NewServer(config Config, runs *registry.Registry, vectors vector.Driver, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		runs:    runs,
		vectors: vectors,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/runs", s.handleListRuns)
	app.Get("/runs/:id", s.handleGetRun)
	app.Get("/runs/:id/report", s.handleGetReport)
	app.Get("/similar/:id", s.handleSimilar)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
