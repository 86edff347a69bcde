// Package auth handles who a browser is and how the portal speaks for it.
//
// VISITOR IDENTITY:
// A browser-only page keeps its bearer token in local storage. A
// server-rendered portal cannot read that storage, so each browser gets a
// long-lived, signed "visitor" cookie instead. The cookie holds a JWT whose
// subject is a random visitor ID; the portal keys its own durable storage
// (see repository.LocalStorage) by that ID.
//
// The visitor JWT proves nothing about the staff user. It only stops one
// browser from guessing another browser's storage key. Staff identity is the
// backend's bearer token, which the portal stores sealed and checks against
// GET /auth/me.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "activities-portal"

	// VisitorLifetime is how long a browser keeps its storage slot. Local
	// storage in a browser has no expiry; a year is close enough.
	VisitorLifetime = 365 * 24 * time.Hour
)

// VisitorTokens signs and verifies visitor cookies with HS256.
type VisitorTokens struct {
	secret []byte
	now    func() time.Time
}

// NewVisitorTokens creates a signer with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewVisitorTokens(secret string) (*VisitorTokens, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &VisitorTokens{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a visitor token for visitorID valid for VisitorLifetime.
func (s *VisitorTokens) Issue(visitorID string) (string, error) {
	return s.IssueWithDuration(visitorID, VisitorLifetime)
}

// IssueWithDuration signs a visitor token with a custom lifetime.
// Negative durations produce already-expired tokens, which tests rely on.
func (s *VisitorTokens) IssueWithDuration(visitorID string, d time.Duration) (string, error) {
	now := s.now()

	c := jwt.RegisteredClaims{
		Subject:   visitorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing visitor token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, algorithm and expiry, and returns the
// visitor ID.
func (s *VisitorTokens) Verify(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: visitor token expired")
		}
		return "", fmt.Errorf("auth: invalid visitor token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return "", fmt.Errorf("auth: visitor token has no subject")
	}
	return c.Subject, nil
}

// BearerExpired reports whether token is a JWT whose exp claim is already in
// the past at now. The backend's token is opaque to us: when it is not a JWT,
// or has no exp, the answer is false and the caller must ask the backend.
//
// The signature is NOT checked; this is only used to skip a pointless
// identity-check round trip, never to grant anything.
func BearerExpired(token string, now time.Time) bool {
	var c jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return false
	}
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}
