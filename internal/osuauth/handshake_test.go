package osuauth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourneyhub/tourney-server/internal/cache"
	"github.com/tourneyhub/tourney-server/internal/osuapi"
	"github.com/tourneyhub/tourney-server/internal/osuauth"
)

// fakeOsu stands in for the osu! token and identity endpoints.
type fakeOsu struct {
	tokenCalls atomic.Int32
	meCalls    atomic.Int32
	expiresIn  int
	meStatus   int
	userID     uint32
}

func newFakeOsu() *fakeOsu {
	return &fakeOsu{expiresIn: 86400, meStatus: http.StatusOK, userID: 7671790}
}

func (f *fakeOsu) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"test-access-token","refresh_token":"test-refresh-token","token_type":"Bearer","expires_in":%d}`, f.expiresIn)
	})
	mux.HandleFunc("/api/v2/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-access-token" || f.meStatus != http.StatusOK {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           f.userID,
			"username":     "Player",
			"country_code": "DE",
			"avatar_url":   "https://a.ppy.sh/7671790",
		})
	})
	return mux
}

func newTestHandshake(t *testing.T, fake *fakeOsu) (*osuauth.Handshake, *cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, zerolog.Nop())

	osu := osuapi.NewClient(osuapi.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:5173/auth",
		AuthURL:      srv.URL + "/oauth/authorize",
		TokenURL:     srv.URL + "/oauth/token",
		APIBaseURL:   srv.URL + "/api/v2",
		Timeout:      5 * time.Second,
		HTTPClient:   srv.Client(),
	})

	return osuauth.New(c, osu, zerolog.Nop(), osuauth.Options{}), c, mr
}

func stateFromAuthURL(t *testing.T, authURL string) string {
	t.Helper()
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestRequestAuthorizationCachesCSRFToken(t *testing.T) {
	h, c, mr := newTestHandshake(t, newFakeOsu())
	ctx := context.Background()

	authURL, err := h.RequestAuthorization(ctx)
	require.NoError(t, err)
	assert.Contains(t, authURL, "client_id=client-id")
	assert.Contains(t, authURL, "scope=public+identify")

	state := stateFromAuthURL(t, authURL)

	token, err := cache.Get[osuauth.CsrfToken](ctx, c, state)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, state, token.Secret)

	ttl := mr.TTL(cache.FullKey[osuauth.CsrfToken](state))
	assert.InDelta(t, (300 * time.Second).Seconds(), ttl.Seconds(), 1)
}

func TestRequestAuthorizationIssuesIndependentTokens(t *testing.T) {
	h, _, _ := newTestHandshake(t, newFakeOsu())
	ctx := context.Background()

	first, err := h.RequestAuthorization(ctx)
	require.NoError(t, err)
	second, err := h.RequestAuthorization(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, stateFromAuthURL(t, first), stateFromAuthURL(t, second))
}

func TestDeliverCallbackSuccess(t *testing.T) {
	fake := newFakeOsu()
	h, c, mr := newTestHandshake(t, fake)
	ctx := context.Background()

	authURL, err := h.RequestAuthorization(ctx)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	session, accessToken, err := h.DeliverCallback(ctx, "auth-code", state)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "test-access-token", accessToken)
	assert.Equal(t, uint32(7671790), session.UserID)
	assert.EqualValues(t, 1, fake.tokenCalls.Load())

	// Session is retrievable by its own id with the configured TTL.
	cached, err := cache.Get[osuauth.Session](ctx, c, session.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, session.UserID, cached.UserID)
	ttl := mr.TTL(cache.FullKey[osuauth.Session](session.ID))
	assert.InDelta(t, (600 * time.Second).Seconds(), ttl.Seconds(), 1)

	// Access token TTL tracks provider expiry minus the safety margin.
	access, err := cache.Get[osuauth.AccessToken](ctx, c, "7671790")
	require.NoError(t, err)
	require.NotNil(t, access)
	assert.Equal(t, "test-access-token", access.Token)
	accessTTL := mr.TTL(cache.FullKey[osuauth.AccessToken]("7671790"))
	assert.InDelta(t, (86370 * time.Second).Seconds(), accessTTL.Seconds(), 15)

	// Refresh token never expires.
	refresh, err := cache.Get[osuauth.RefreshToken](ctx, c, "7671790")
	require.NoError(t, err)
	require.NotNil(t, refresh)
	assert.Equal(t, "test-refresh-token", refresh.Token)
	assert.Zero(t, mr.TTL(cache.FullKey[osuauth.RefreshToken]("7671790")))

	// The matched CSRF token is single-use.
	gone, err := cache.Get[osuauth.CsrfToken](ctx, c, state)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeliverCallbackUnknownState(t *testing.T) {
	fake := newFakeOsu()
	h, _, _ := newTestHandshake(t, fake)

	_, _, err := h.DeliverCallback(context.Background(), "auth-code", "never-issued")
	require.ErrorIs(t, err, osuauth.ErrMissingCSRF)
	assert.True(t, osuauth.IsUnauthenticated(err))
	assert.Zero(t, fake.tokenCalls.Load(), "token exchange must not run without a CSRF match")
}

func TestDeliverCallbackExpiredCSRF(t *testing.T) {
	fake := newFakeOsu()
	h, _, mr := newTestHandshake(t, fake)
	ctx := context.Background()

	authURL, err := h.RequestAuthorization(ctx)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	mr.FastForward(301 * time.Second)

	_, _, err = h.DeliverCallback(ctx, "auth-code", state)
	require.ErrorIs(t, err, osuauth.ErrMissingCSRF)
	assert.Zero(t, fake.tokenCalls.Load())
}

func TestDeliverCallbackCSRFMismatch(t *testing.T) {
	fake := newFakeOsu()
	h, _, mr := newTestHandshake(t, fake)

	// A corrupted entry whose stored secret differs from its key.
	require.NoError(t, mr.Set("oauthcsrftoken:evil-state", `{"secret":"something-else"}`))

	_, _, err := h.DeliverCallback(context.Background(), "auth-code", "evil-state")
	require.ErrorIs(t, err, osuauth.ErrCSRFMismatch)
	assert.Zero(t, fake.tokenCalls.Load())
}

func TestDeliverCallbackIdentityFailureIssuesNoSession(t *testing.T) {
	fake := newFakeOsu()
	fake.meStatus = http.StatusInternalServerError
	h, _, mr := newTestHandshake(t, fake)
	ctx := context.Background()

	authURL, err := h.RequestAuthorization(ctx)
	require.NoError(t, err)

	_, _, err = h.DeliverCallback(ctx, "auth-code", stateFromAuthURL(t, authURL))
	require.ErrorIs(t, err, osuauth.ErrIdentity)
	assert.True(t, osuauth.IsUnauthenticated(err))

	for _, key := range mr.Keys() {
		assert.False(t, strings.HasPrefix(key, "apisessiontoken:"), "no session may survive a failed handshake")
		assert.False(t, strings.HasPrefix(key, "osuaccesstoken:"))
	}
}

func TestAccessTokenTTLClamp(t *testing.T) {
	fake := newFakeOsu()
	fake.expiresIn = 10 // below the 30s safety margin
	h, _, mr := newTestHandshake(t, fake)
	ctx := context.Background()

	authURL, err := h.RequestAuthorization(ctx)
	require.NoError(t, err)

	_, _, err = h.DeliverCallback(ctx, "auth-code", stateFromAuthURL(t, authURL))
	require.NoError(t, err)

	ttl := mr.TTL(cache.FullKey[osuauth.AccessToken]("7671790"))
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)
}

func TestSessionIssuer(t *testing.T) {
	var issuer osuauth.SessionIssuer

	first, err := issuer.New(42)
	require.NoError(t, err)
	second, err := issuer.New(42)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, uint32(42), first.UserID)

	raw, err := base64.RawURLEncoding.DecodeString(first.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw), 16, "session ids carry at least 128 bits of entropy")
}
