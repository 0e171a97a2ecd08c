// Package auth provides HTTP handlers for the osu! login flow.
//
// Purpose:
//
//	This package exposes the authorization-code flow over REST: issuing the
//	osu! authorization URL, completing the callback, and returning the
//	authenticated user's profile. Handlers translate handshake errors into
//	HTTP status codes and keep the specific failure reason in the logs.
//
// Dependencies:
//   - github.com/go-chi/chi/v5: HTTP router for route registration
//   - internal/bootstrap: Runtime dependencies (cache, handshake, audit)
//   - internal/osuauth: Handshake orchestration and session types
//
// Error Handling:
//   - CSRF and identity failures return 401 with a generic message; the
//     precise check that failed is logged, not leaked to the caller
//   - Upstream osu! failures return 500
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tourneyhub/tourney-server/internal/audit"
	"github.com/tourneyhub/tourney-server/internal/bootstrap"
	"github.com/tourneyhub/tourney-server/internal/cache"
	"github.com/tourneyhub/tourney-server/internal/httpapi/middleware"
	"github.com/tourneyhub/tourney-server/internal/osuapi"
	"github.com/tourneyhub/tourney-server/internal/osuauth"
)

// accessTokenCookie is the cookie carrying the raw osu! access token for the
// frontend's follow-up calls. It is never validated on the way back in; only
// the bearer session token is.
const accessTokenCookie = "mycookie"

// RegisterRoutes mounts the osu! authentication routes beneath /v1/auth/osu.
func RegisterRoutes(router chi.Router, rt *bootstrap.Runtime, logger zerolog.Logger) {
	if rt == nil || rt.Handshake == nil {
		return
	}
	h := &Handler{runtime: rt, logger: logger.With().Str("component", "auth_handlers").Logger()}
	router.Route("/v1/auth/osu", func(r chi.Router) {
		r.Get("/login", h.Login)
		r.Get("/callback", h.Callback)
		r.Get("/me", h.Me) // gated by the bearer middleware
	})
}

// Handler serves authentication endpoints backed by the osu! handshake.
type Handler struct {
	runtime *bootstrap.Runtime
	logger  zerolog.Logger
}

type loginResponse struct {
	AuthURL string `json:"auth_url"`
}

type callbackResponse struct {
	SessionID string `json:"session_id"`
	UserID    uint32 `json:"user_id"`
}

// Login issues an osu! authorization URL for the frontend to redirect to.
// GET /v1/auth/osu/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.runtime.Handshake.RequestAuthorization(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("error requesting authorization URL")
		http.Error(w, "error requesting authorization URL", http.StatusInternalServerError)
		return
	}

	event := audit.NewEvent("auth.url_issued")
	event.IPAddress = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	_ = h.runtime.Audit.Emit(r.Context(), event)

	writeJSON(w, http.StatusOK, loginResponse{AuthURL: authURL})
}

// Callback completes a login attempt from the osu! redirect.
// GET /v1/auth/osu/callback?code={code}&state={state}
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "missing code or state parameter", http.StatusBadRequest)
		return
	}

	session, accessToken, err := h.runtime.Handshake.DeliverCallback(ctx, code, state)
	if err != nil {
		event := audit.NewEvent("auth.login_failed")
		event.IPAddress = r.RemoteAddr
		event.UserAgent = r.UserAgent()
		_ = h.runtime.Audit.Emit(ctx, event)

		if osuauth.IsUnauthenticated(err) {
			h.logger.Debug().Err(err).Msg("osu! callback rejected")
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		h.logger.Error().Err(err).Msg("osu! callback failed")
		http.Error(w, "error completing osu! login", http.StatusInternalServerError)
		return
	}

	event := audit.NewEvent("auth.login")
	event.UserID = session.UserID
	event.IPAddress = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	_ = h.runtime.Audit.Emit(ctx, event)

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, callbackResponse{SessionID: session.ID, UserID: session.UserID})
}

// Me returns the authenticated user's osu! profile. The route is gated, so a
// session is already resolved; it is re-fetched by id here to observe expiry
// that happened between the gate's lookup and this call.
// GET /v1/auth/osu/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session := middleware.GetSession(ctx)
	if session == nil {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	fresh, err := cache.Get[osuauth.Session](ctx, h.runtime.Cache, session.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("error re-reading session")
		http.Error(w, "error reading session", http.StatusInternalServerError)
		return
	}
	if fresh == nil {
		http.Error(w, "expired or unknown session token", http.StatusUnauthorized)
		return
	}

	profile, err := h.runtime.Profiles.Get(ctx, fresh.UserID)
	if err != nil {
		// Only a missing or rejected osu! token is the caller's problem. A
		// store failure inside the lookup must not read as expired access.
		if errors.Is(err, osuauth.ErrNoAccessToken) || errors.Is(err, osuapi.ErrUnauthorized) {
			h.logger.Debug().Err(err).Uint32("user_id", fresh.UserID).Msg("profile fetch rejected")
			http.Error(w, "osu! access expired, log in again", http.StatusUnauthorized)
			return
		}
		h.logger.Error().Err(err).Uint32("user_id", fresh.UserID).Msg("error loading profile")
		http.Error(w, "error loading profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
