// Package config provides environment variable-based configuration loading.
//
// Purpose:
//
//	This package defines the service configuration structure and provides
//	functions to load configuration from environment variables using
//	envconfig. There are no ambient singletons: the loaded Config is passed
//	explicitly into bootstrap and from there into each component.
//
// Dependencies:
//   - github.com/kelseyhightower/envconfig: Environment variable parsing
//
// Debugging Notes:
//   - Required fields: OSU_CLIENT_ID, OSU_CLIENT_SECRET
//   - Defaults provided for optional fields (ports, Redis, TTLs, log level)
//   - CSRF/session TTLs and the access-token safety margin are tunable but
//     ship with the defaults the osu! flow was designed around
//
// Thread Safety:
//   - Config struct is read-only after loading (safe for concurrent reads)
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents runtime configuration for the tournament service.
// All fields are populated from environment variables with defaults where
// specified. Required fields must be set or Load/MustLoad will return an error.
type Config struct {
	// ServiceName is emitted in logs and metrics.
	ServiceName string `envconfig:"SERVICE_NAME" default:"tourney-server"`
	// HTTPPort is the port the HTTP server listens on.
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`
	// LogLevel controls zerolog global level (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Environment describes the current deployment environment (dev, staging, prod, etc.).
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// RedisAddr is the host:port of the Redis instance backing the cache layer.
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	// RedisPassword is the optional password for Redis authentication.
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	// RedisDB selects the logical Redis database index.
	RedisDB int `envconfig:"REDIS_DB" default:"0"`

	// OsuClientID is the osu! OAuth2 application client id.
	OsuClientID string `envconfig:"OSU_CLIENT_ID" required:"true"`
	// OsuClientSecret is the osu! OAuth2 application client secret.
	OsuClientSecret string `envconfig:"OSU_CLIENT_SECRET" required:"true"`
	// OsuRedirectURL is the URL the osu! authorization server redirects back to.
	OsuRedirectURL string `envconfig:"OSU_REDIRECT_URL" default:"http://localhost:5173/auth"`
	// OsuAPITimeout bounds every call to the osu! token and identity endpoints.
	OsuAPITimeout time.Duration `envconfig:"OSU_API_TIMEOUT" default:"10s"`

	// CSRFTokenTTL is how long an issued CSRF token remains valid if the
	// callback never arrives.
	CSRFTokenTTL time.Duration `envconfig:"CSRF_TOKEN_TTL" default:"300s"`
	// SessionTTL is the lifetime of a minted API session. Sessions are renewed
	// only by re-authentication, never by use.
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"600s"`
	// AccessTokenSafetyMargin is subtracted from the provider-declared expiry
	// before caching an access token, so a token is never handed out right
	// before it expires upstream.
	AccessTokenSafetyMargin time.Duration `envconfig:"ACCESS_TOKEN_SAFETY_MARGIN" default:"30s"`

	// GatedPathPrefixes lists path fragments that require a bearer session.
	// A request is gated when its path contains any of these fragments.
	GatedPathPrefixes []string `envconfig:"GATED_PATH_PREFIXES" default:"/v1/tournaments,/v1/auth/osu/me"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses.
	// If empty, audit events are logged instead of sent to Kafka.
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	// KafkaTopic is the Kafka topic name for audit events.
	KafkaTopic string `envconfig:"KAFKA_TOPIC" default:"audit.auth"`
	// KafkaClientID is the client ID used when connecting to Kafka.
	KafkaClientID string `envconfig:"KAFKA_CLIENT_ID" default:"tourney-server"`
}

// Load reads environment variables into Config, applying defaults where necessary.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	return &cfg, nil
}

// MustLoad returns Config or exits the process.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
