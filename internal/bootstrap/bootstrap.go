// Package bootstrap provides centralized initialization and lifecycle
// management for core service dependencies (Redis, osu! client, handshake,
// audit).
//
// Purpose:
//
//	This package wires together the runtime dependencies the API binary
//	needs. It ensures a consistent initialization order, fails fast on an
//	unreachable Redis, and provides a unified shutdown and readiness
//	interface. Nothing here is a singleton: the Runtime is constructed once
//	in main and passed into each component.
//
// Key Responsibilities:
//   - Initialize connects to Redis and composes cache, osu! client and handshake
//   - Runtime bundles all initialized dependencies for use by handlers
//   - ReadinessProbe checks Redis connectivity
//   - Close releases resources in reverse initialization order
//
// Debugging Notes:
//   - Redis connection failures fail fast during initialization (2s ping timeout)
//   - Kafka is optional; audit falls back to the logger emitter without it
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tourneyhub/tourney-server/internal/audit"
	"github.com/tourneyhub/tourney-server/internal/cache"
	"github.com/tourneyhub/tourney-server/internal/config"
	"github.com/tourneyhub/tourney-server/internal/osuapi"
	"github.com/tourneyhub/tourney-server/internal/osuauth"
	"github.com/tourneyhub/tourney-server/internal/storage"
	"github.com/tourneyhub/tourney-server/internal/storage/memory"
)

// Runtime bundles initialized runtime dependencies for the service binaries.
// All fields are populated during Initialize and remain valid until Close.
type Runtime struct {
	Config      *config.Config          // Service configuration (read-only after init)
	Redis       *redis.Client           // Redis client backing the cache layer
	Cache       *cache.Cache            // Namespaced cache-aside layer
	Osu         *osuapi.Client          // osu! OAuth2 and web API client
	Handshake   *osuauth.Handshake      // Authorization-code flow orchestrator
	Profiles    *osuauth.Profiles       // Cache-aside osu! profile loader
	Tournaments storage.TournamentStore // Tournament read surface for gated routes
	Audit       audit.Emitter           // Audit emitter (Kafka or logger)
}

// Initialize wires core dependencies based on the provided configuration.
// Initialization order: Redis → cache → osu! client → handshake → audit.
// The returned Runtime must be closed via Close during shutdown.
func Initialize(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Runtime, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}

	c := cache.New(rdb, logger)

	osu := osuapi.NewClient(osuapi.Config{
		ClientID:     cfg.OsuClientID,
		ClientSecret: cfg.OsuClientSecret,
		RedirectURL:  cfg.OsuRedirectURL,
		Timeout:      cfg.OsuAPITimeout,
	})

	handshake := osuauth.New(c, osu, logger, osuauth.Options{
		CSRFTokenTTL:            cfg.CSRFTokenTTL,
		SessionTTL:              cfg.SessionTTL,
		AccessTokenSafetyMargin: cfg.AccessTokenSafetyMargin,
	})

	var emitter audit.Emitter
	kafkaEmitter, err := audit.NewKafkaEmitterFromConfig(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaClientID, logger)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("failed to initialize Kafka emitter, falling back to logger")
		emitter = audit.NewLoggerEmitter(logger)
	case kafkaEmitter != nil:
		logger.Info().Str("topic", cfg.KafkaTopic).Msg("using Kafka emitter for audit events")
		emitter = kafkaEmitter
	default:
		logger.Info().Msg("Kafka not configured, using logger emitter for audit events")
		emitter = audit.NewLoggerEmitter(logger)
	}

	return &Runtime{
		Config:      cfg,
		Redis:       rdb,
		Cache:       c,
		Osu:         osu,
		Handshake:   handshake,
		Profiles:    osuauth.NewProfiles(c, osu),
		Tournaments: memory.NewStore(),
		Audit:       emitter,
	}, nil
}

// Close releases runtime resources in reverse initialization order. Returns
// the first error encountered but continues closing other resources.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt == nil {
		return nil
	}
	var firstErr error
	if kafkaEmitter, ok := rt.Audit.(*audit.KafkaEmitter); ok {
		if err := kafkaEmitter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadinessProbe checks the health of critical runtime dependencies. Used by
// the /readyz endpoint; the caller sets the context timeout.
func (rt *Runtime) ReadinessProbe(ctx context.Context) error {
	if rt.Redis != nil {
		if err := rt.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis not ready: %w", err)
		}
	}
	return nil
}
