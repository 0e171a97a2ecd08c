// Package osuauth implements the osu! OAuth2 authorization-code lifecycle:
// CSRF-protected authorization URLs, code exchange, identity lookup, token
// caching and API session issuance. All intermediate state lives as cache
// entries; no handshake object is ever persisted.
package osuauth

import "strconv"

// CsrfToken binds an authorization request to its callback. It is cached
// under its own secret so the callback's state parameter is the lookup key.
type CsrfToken struct {
	Secret string `json:"secret"`
}

func (CsrfToken) TypeKey() string { return "oauthcsrftoken" }

func (t CsrfToken) Key() string { return t.Secret }

// AccessToken is an osu! access token cached per user. Its TTL tracks the
// provider-declared expiry minus a safety margin.
type AccessToken struct {
	UserID uint32 `json:"user_id"`
	Token  string `json:"token"`
}

func (AccessToken) TypeKey() string { return "osuaccesstoken" }

func (t AccessToken) Key() string { return strconv.FormatUint(uint64(t.UserID), 10) }

// RefreshToken is an osu! refresh token cached per user with no expiry. It
// must survive until explicitly rotated by a later handshake.
type RefreshToken struct {
	UserID uint32 `json:"user_id"`
	Token  string `json:"token"`
}

func (RefreshToken) TypeKey() string { return "osurefreshtoken" }

func (t RefreshToken) Key() string { return strconv.FormatUint(uint64(t.UserID), 10) }

// Session is the opaque API session minted after a successful handshake.
// It is keyed by its own identifier because lookups happen by presented
// bearer token, not by user id.
type Session struct {
	ID     string `json:"id"`
	UserID uint32 `json:"user_id"`
}

func (Session) TypeKey() string { return "apisessiontoken" }

func (s Session) Key() string { return s.ID }
