package osuauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenEntropyBytes is the raw entropy of session identifiers and CSRF
// secrets. 32 bytes comfortably clears the 128-bit floor.
const tokenEntropyBytes = 32

// SessionIssuer mints opaque API sessions. It is stateless; caching and TTL
// handling belong to the caller.
type SessionIssuer struct{}

// New returns a session binding a fresh random identifier to the given osu!
// user id.
func (SessionIssuer) New(userID uint32) (Session, error) {
	id, err := randomToken()
	if err != nil {
		return Session{}, fmt.Errorf("mint session id: %w", err)
	}
	return Session{ID: id, UserID: userID}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
