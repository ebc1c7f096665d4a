// Package server provides the public entry point for initializing the
// GenStudio server: configuration, telemetry, the service gateway, the
// orchestration core, and the HTTP API, wired together and ready to
// serve.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/genstudio/genstudio/internal/api"
	"github.com/genstudio/genstudio/internal/api/handlers"
	"github.com/genstudio/genstudio/internal/config"
	"github.com/genstudio/genstudio/internal/genai"
	"github.com/genstudio/genstudio/internal/history"
	"github.com/genstudio/genstudio/internal/media"
	"github.com/genstudio/genstudio/internal/studio"
	"github.com/genstudio/genstudio/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// Server holds the initialized GenStudio server.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Config is the loaded server configuration.
	Config *config.Config

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush
	// telemetry.
	ShutdownFunc func(context.Context) error
}

// New loads configuration from the environment and initializes all
// components. A missing service credential is an error; the process
// must not start without one.
func New(ctx context.Context) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig initializes the server with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	shutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	gateway := genai.NewClient(cfg.Service, cfg.Video)
	ledger := history.NewLedger()
	mediaStore := media.NewStore()

	orch := studio.NewOrchestrator(gateway, ledger, mediaStore)
	chat := studio.NewChatManager(gateway, ledger)

	log.Info().Str("model", cfg.Service.TextModel).Msg("service gateway initialized")

	h := handlers.New(orch, chat, ledger, mediaStore, cfg.Service)
	router := api.NewRouter(cfg, h)

	return &Server{
		Handler:      router,
		Config:       cfg,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}
