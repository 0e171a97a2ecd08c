package osuauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tourneyhub/tourney-server/internal/cache"
	"github.com/tourneyhub/tourney-server/internal/metrics"
	"github.com/tourneyhub/tourney-server/internal/osuapi"
)

// Sentinel errors for handshake failures the caller must surface as
// unauthenticated. Everything else is an internal or upstream failure.
var (
	ErrMissingCSRF  = errors.New("missing CSRF token")
	ErrCSRFMismatch = errors.New("CSRF token mismatch")
	ErrIdentity     = errors.New("could not verify osu! identity")
)

// IsUnauthenticated reports whether a handshake error is the caller's fault
// and should map to an unauthenticated status rather than an internal one.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrMissingCSRF) ||
		errors.Is(err, ErrCSRFMismatch) ||
		errors.Is(err, ErrIdentity)
}

// minAccessTokenTTL is the floor applied after subtracting the safety margin
// from the provider-declared expiry. Redis rejects non-positive expirations.
const minAccessTokenTTL = time.Second

const (
	defaultCSRFTokenTTL = 300 * time.Second
	defaultSessionTTL   = 600 * time.Second
	defaultSafetyMargin = 30 * time.Second
)

// Options tune the handshake's TTLs. Zero values take the defaults the flow
// was designed around.
type Options struct {
	CSRFTokenTTL            time.Duration
	SessionTTL              time.Duration
	AccessTokenSafetyMargin time.Duration
}

// Handshake orchestrates the three-step osu! authorization flow. Per-attempt
// state lives only as cache entries keyed by CSRF token and user id, so
// concurrent login attempts never interfere with each other.
type Handshake struct {
	cache  *cache.Cache
	osu    *osuapi.Client
	issuer SessionIssuer
	logger zerolog.Logger

	csrfTTL      time.Duration
	sessionTTL   time.Duration
	safetyMargin time.Duration
}

// New creates a handshake orchestrator over the given cache and osu! client.
func New(c *cache.Cache, osu *osuapi.Client, logger zerolog.Logger, opts Options) *Handshake {
	if opts.CSRFTokenTTL <= 0 {
		opts.CSRFTokenTTL = defaultCSRFTokenTTL
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.AccessTokenSafetyMargin <= 0 {
		opts.AccessTokenSafetyMargin = defaultSafetyMargin
	}
	return &Handshake{
		cache:        c,
		osu:          osu,
		logger:       logger.With().Str("component", "osuauth").Logger(),
		csrfTTL:      opts.CSRFTokenTTL,
		sessionTTL:   opts.SessionTTL,
		safetyMargin: opts.AccessTokenSafetyMargin,
	}
}

// SessionTTL returns the configured session lifetime.
func (h *Handshake) SessionTTL() time.Duration { return h.sessionTTL }

// RequestAuthorization issues an osu! authorization URL with a fresh CSRF
// token embedded as the state parameter. The token is cached for the CSRF TTL
// so an unanswered login attempt cleans itself up. Safe to call repeatedly;
// every call issues an independent token.
func (h *Handshake) RequestAuthorization(ctx context.Context) (string, error) {
	secret, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("generate CSRF token: %w", err)
	}

	if err := cache.Put(ctx, h.cache, CsrfToken{Secret: secret}, h.csrfTTL); err != nil {
		return "", fmt.Errorf("cache CSRF token: %w", err)
	}

	authURL := h.osu.AuthCodeURL(secret)
	metrics.RecordAuthURLIssued()
	h.logger.Debug().Str("auth_url", authURL).Msg("issued authorization URL")
	return authURL, nil
}

// DeliverCallback completes a login attempt from the provider's redirect.
// It validates the returned CSRF state, exchanges the authorization code,
// fetches the osu! identity, caches the token pair and mints an API session.
// The raw access token is returned alongside the session so the transport
// layer can hand it to the browser as a cookie.
//
// Each step short-circuits on failure: no partial session is ever reachable
// through the bearer gate if an earlier step failed.
func (h *Handshake) DeliverCallback(ctx context.Context, code, state string) (*Session, string, error) {
	cached, err := cache.Get[CsrfToken](ctx, h.cache, state)
	if err != nil {
		return nil, "", fmt.Errorf("look up CSRF token: %w", err)
	}
	if cached == nil {
		metrics.RecordAuthFailure("osu", "missing_csrf")
		return nil, "", ErrMissingCSRF
	}
	if subtle.ConstantTimeCompare([]byte(cached.Secret), []byte(state)) != 1 {
		metrics.RecordAuthFailure("osu", "csrf_mismatch")
		return nil, "", ErrCSRFMismatch
	}

	// Single-use: a matched token must not be replayable within its TTL
	// window. Deletion is best-effort; the TTL still bounds a leftover entry.
	if _, err := cache.Delete[CsrfToken](ctx, h.cache, state); err != nil {
		h.logger.Warn().Err(err).Msg("failed to invalidate matched CSRF token")
	}

	token, err := h.osu.Exchange(ctx, code)
	if err != nil {
		metrics.RecordAuthFailure("osu", "exchange_failed")
		return nil, "", fmt.Errorf("exchange authorization code: %w", err)
	}

	user, err := h.osu.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		metrics.RecordAuthFailure("osu", "identity_failed")
		return nil, "", fmt.Errorf("%w: %v", ErrIdentity, err)
	}

	accessTTL := time.Until(token.Expiry) - h.safetyMargin
	if accessTTL < minAccessTokenTTL {
		accessTTL = minAccessTokenTTL
	}

	if err := cache.Put(ctx, h.cache, AccessToken{UserID: user.ID, Token: token.AccessToken}, accessTTL); err != nil {
		return nil, "", fmt.Errorf("cache access token: %w", err)
	}
	if err := cache.Put(ctx, h.cache, RefreshToken{UserID: user.ID, Token: token.RefreshToken}, 0); err != nil {
		return nil, "", fmt.Errorf("cache refresh token: %w", err)
	}

	session, err := h.issuer.New(user.ID)
	if err != nil {
		return nil, "", err
	}
	if err := cache.Put(ctx, h.cache, session, h.sessionTTL); err != nil {
		return nil, "", fmt.Errorf("cache session: %w", err)
	}

	metrics.RecordAuthSuccess("osu")
	metrics.RecordSessionCreated()
	h.logger.Info().Uint32("user_id", user.ID).Str("username", user.Username).Msg("osu! login completed")

	return &session, token.AccessToken, nil
}
