// Package osuapi is a minimal client for the osu! OAuth2 and web API v2
// endpoints used by the authentication flow.
//
// Purpose:
//
//	This package wraps golang.org/x/oauth2 with the osu! endpoints and adds
//	the single identity call the handshake needs (GET /api/v2/me). Endpoint
//	URLs are overridable so tests can point the client at an httptest server.
//
// Dependencies:
//   - golang.org/x/oauth2: Authorization-code exchange
//
// Error Handling:
//   - Every upstream call is bounded by the configured timeout; a timeout
//     surfaces as an ordinary request error and is treated as an upstream
//     failure by callers
//   - ErrUnauthorized signals that the access token was rejected by the API
package osuapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultAuthURL    = "https://osu.ppy.sh/oauth/authorize"
	defaultTokenURL   = "https://osu.ppy.sh/oauth/token"
	defaultAPIBaseURL = "https://osu.ppy.sh/api/v2"

	defaultTimeout = 10 * time.Second
)

// ErrUnauthorized is returned when the osu! API rejects the access token.
var ErrUnauthorized = errors.New("osuapi: access token rejected")

// Config configures the osu! client. Only ClientID, ClientSecret and
// RedirectURL are required; endpoint URLs default to the public osu! API.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL    string
	TokenURL   string
	APIBaseURL string

	// Timeout bounds every token-exchange and identity call.
	Timeout time.Duration

	// HTTPClient overrides the transport used for API calls. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// User is the subset of the osu! v2 user payload the service cares about.
type User struct {
	ID          uint32 `json:"id"`
	Username    string `json:"username"`
	CountryCode string `json:"country_code"`
	AvatarURL   string `json:"avatar_url"`
}

// Client talks to the osu! OAuth2 and web API endpoints.
type Client struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates an osu! client from the given configuration.
func NewClient(cfg Config) *Client {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	apiBaseURL := cfg.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"public", "identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
				// osu! expects client credentials in the request body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: apiBaseURL,
		httpClient: httpClient,
		timeout:    timeout,
	}
}

// AuthCodeURL builds the osu! authorization URL with the given CSRF state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token set. The osu! API always
// issues a refresh token and an expiry for authorization-code grants; their
// absence is treated as an upstream failure.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("osuapi: exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, errors.New("osuapi: token response missing refresh token")
	}
	if token.Expiry.IsZero() {
		return nil, errors.New("osuapi: token response missing expiry")
	}
	return token, nil
}

// CurrentUser fetches the identity of the user the access token belongs to.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("osuapi: build identity request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osuapi: request identity: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("osuapi: identity endpoint returned %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("osuapi: decode identity payload: %w", err)
	}
	if user.ID == 0 {
		return nil, errors.New("osuapi: identity payload missing user id")
	}
	return &user, nil
}
