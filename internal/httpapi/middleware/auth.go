// Package middleware provides HTTP middleware for authentication.
//
// Purpose:
//
//	This package implements the bearer-token gate in front of protected
//	routes. Requests whose path matches a configured fragment list must carry
//	a valid API session token; everything else passes through untouched.
//
// Dependencies:
//   - github.com/rs/zerolog: Structured logging
//   - internal/cache: Session lookup
//   - internal/osuauth: Session type
//
// Key Responsibilities:
//   - Decide by path substring match whether a request is gated
//   - Extract the token from "Authorization: Bearer <token>"
//   - Resolve the token to a live session through the cache
//   - Thread the resolved session into the request context
//
// Debugging Notes:
//   - The "Bearer " prefix check is case-sensitive, matching the issuing side
//   - Missing header, non-bearer scheme and empty token are distinct 401s
//   - A cache/store failure is a 500, not a 401: the caller's credentials
//     were never evaluated
//
// Error Handling:
//   - The gate is read-only; it never creates, refreshes or deletes sessions
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tourneyhub/tourney-server/internal/cache"
	"github.com/tourneyhub/tourney-server/internal/metrics"
	"github.com/tourneyhub/tourney-server/internal/osuauth"
)

// bearerPrefix is stripped from the authorization header before lookup.
const bearerPrefix = "Bearer "

// ContextKey is the type for context keys set by this package.
type ContextKey string

// SessionKey is the context key under which the resolved session is stored.
const SessionKey ContextKey = "auth.session"

// RequireSession creates middleware that validates bearer session tokens on
// gated paths. A request is gated when its URL path contains any entry of
// gatedPaths; all other requests pass through without a credential check.
func RequireSession(c *cache.Cache, gatedPaths []string, logger zerolog.Logger) func(http.Handler) http.Handler {
	gated := make([]string, len(gatedPaths))
	copy(gated, gatedPaths)
	log := logger.With().Str("component", "bearer_gate").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			matched := false
			for _, fragment := range gated {
				if fragment != "" && strings.Contains(path, fragment) {
					matched = true
					break
				}
			}
			if !matched {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				log.Debug().Str("path", path).Msg("missing authorization header")
				metrics.RecordAuthFailure("bearer", "missing_header")
				http.Error(w, "authorization header not set", http.StatusUnauthorized)
				return
			}
			if !strings.HasPrefix(header, bearerPrefix) {
				log.Debug().Str("path", path).Msg("authorization header is not a bearer token")
				metrics.RecordAuthFailure("bearer", "wrong_scheme")
				http.Error(w, "invalid session token", http.StatusUnauthorized)
				return
			}
			token := header[len(bearerPrefix):]
			if token == "" {
				log.Debug().Str("path", path).Msg("empty bearer token")
				metrics.RecordAuthFailure("bearer", "empty_token")
				http.Error(w, "malformed session token", http.StatusUnauthorized)
				return
			}

			session, err := cache.Get[osuauth.Session](r.Context(), c, token)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("error reading session token")
				http.Error(w, "error reading session token", http.StatusInternalServerError)
				return
			}
			if session == nil {
				log.Debug().Str("path", path).Msg("session token unknown or expired")
				metrics.RecordAuthFailure("bearer", "unknown_session")
				http.Error(w, "expired or unknown session token", http.StatusUnauthorized)
				return
			}

			metrics.RecordAuthSuccess("bearer")
			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the resolved session from the request context.
// Returns nil when the request did not pass through a gated path. Call sites
// that need a fresh view may still re-fetch the session by its id through
// the cache.
func GetSession(ctx context.Context) *osuauth.Session {
	session, ok := ctx.Value(SessionKey).(*osuauth.Session)
	if !ok {
		return nil
	}
	return session
}
