// Package auth issues the session marker token.
//
// WHAT THE TOKEN IS (AND ISN'T):
// The session is demo-only. Its token is an existence flag: if "auth_token"
// and "user_data" are both present, somebody is logged in. Nothing ever checks
// a signature, so the token is deliberately an UNSIGNED JWT (alg "none").
//
// Using the JWT shape still buys us something: the marker carries who it was
// issued to and when, which is handy in logs and when inspecting storage.
//
//	HEADER.PAYLOAD.            ← note the empty signature part
//	- Header:  {"alg":"none","typ":"JWT"}
//	- Payload: {"iss":"learning-tracker","sub":"1","jti":"<xid>","iat":...,"kind":"demo"}
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "learning-tracker"

// Token kinds: demo accounts log in, registered accounts are synthesized.
const (
	KindDemo     = "demo"
	KindRegister = "user"
)

// MarkerClaims is the marker payload. It embeds jwt.RegisteredClaims for
// the standard fields (sub, jti, iat, iss).
type MarkerClaims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// MarkerService creates and inspects session markers.
// now is injectable so tests get stable issue times.
type MarkerService struct {
	now func() time.Time
}

// NewMarkerService returns a MarkerService using the wall clock.
func NewMarkerService() *MarkerService {
	return &MarkerService{now: time.Now}
}

// NewMarkerServiceWithClock lets tests pin the issue time.
func NewMarkerServiceWithClock(now func() time.Time) *MarkerService {
	return &MarkerService{now: now}
}

// Issue returns a fresh marker for the identity with the given id.
//
// Every marker gets a unique jti (an xid: 20 chars, sortable by time), so
// logging in twice in the same millisecond still yields two distinct tokens.
func (s *MarkerService) Issue(userID int64, kind string) (string, error) {
	c := MarkerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			ID:       xid.New().String(),
			IssuedAt: jwt.NewNumericDate(s.now()),
			Issuer:   issuer,
		},
		Kind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodNone, c)
	marker, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		return "", fmt.Errorf("auth: encoding session marker: %w", err)
	}
	return marker, nil
}

// Inspect decodes a marker WITHOUT verifying it. Markers written by the web
// frontend ("demo_token_1700000000000") are not JWTs; Inspect returns an
// error for them and callers treat them as opaque.
func (s *MarkerService) Inspect(marker string) (*MarkerClaims, error) {
	c := &MarkerClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(marker, c); err != nil {
		return nil, fmt.Errorf("auth: decoding session marker: %w", err)
	}
	if c.Issuer != issuer {
		return nil, fmt.Errorf("auth: session marker has unexpected issuer %q", c.Issuer)
	}
	return c, nil
}
