// Command api is the HTTP server for the tournament service.
//
// Purpose:
//
//	This binary serves the osu! authentication flow and the gated tournament
//	read API. It initializes runtime dependencies (Redis, osu! client,
//	audit) via bootstrap, installs the bearer gate in front of the
//	configured path prefixes, and handles graceful shutdown.
//
// Debugging Notes:
//   - Server starts on HTTP_PORT (default 8080)
//   - Readiness probe checks Redis connectivity
//   - Graceful shutdown allows in-flight requests to complete (10s timeout)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tourneyhub/tourney-server/internal/bootstrap"
	"github.com/tourneyhub/tourney-server/internal/config"
	"github.com/tourneyhub/tourney-server/internal/httpapi/auth"
	"github.com/tourneyhub/tourney-server/internal/httpapi/middleware"
	"github.com/tourneyhub/tourney-server/internal/httpapi/tournaments"
	"github.com/tourneyhub/tourney-server/internal/logging"
	"github.com/tourneyhub/tourney-server/internal/server"
	"github.com/tourneyhub/tourney-server/internal/storage"
	"github.com/tourneyhub/tourney-server/internal/storage/memory"
)

func main() {
	cfg := config.MustLoad()
	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	logger.Info().
		Str("env", cfg.Environment).
		Int("port", cfg.HTTPPort).
		Msg("starting tournament API")

	ctx := context.Background()
	runtime, err := bootstrap.Initialize(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap runtime")
	}
	logger.Info().Msg("runtime dependencies initialized")

	seedDemoData(runtime)

	srv := server.New(server.Options{
		Port:        cfg.HTTPPort,
		Logger:      logger,
		ServiceName: cfg.ServiceName,
		Readiness:   runtime.ReadinessProbe,
		RegisterRoutes: func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(runtime.Cache, cfg.GatedPathPrefixes, logger))
				auth.RegisterRoutes(r, runtime, logger)
				tournaments.RegisterRoutes(r, runtime.Tournaments, logger)
			})
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
	if err := runtime.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to cleanly close runtime")
	}

	logger.Info().Msg("tournament API stopped")
}

// seedDemoData populates the in-memory tournament store. Seeding happens
// here, from an explicit Runtime, so no package carries ambient demo tables.
func seedDemoData(rt *bootstrap.Runtime) {
	store, ok := rt.Tournaments.(*memory.Store)
	if !ok {
		return
	}
	store.Seed(
		[]storage.Tournament{
			{Name: "Deutsche Meisterschaft 8", Shorthand: "DM8", Format: 1, BWS: true},
			{Name: "osu! World Cup 2023", Shorthand: "OWC23", Format: 4, BWS: false},
		},
		map[string][]storage.Stage{
			"DM8": {
				{Name: "Q", StageOrder: 0, BestOf: 0},
				{Name: "RO16", StageOrder: 1, BestOf: 9},
				{Name: "QF", StageOrder: 2, BestOf: 9},
				{Name: "SF", StageOrder: 3, BestOf: 11},
				{Name: "F", StageOrder: 4, BestOf: 13},
			},
			"OWC23": {
				{Name: "Q", StageOrder: 0, BestOf: 0},
				{Name: "RO32", StageOrder: 1, BestOf: 9},
			},
		},
	)
}
