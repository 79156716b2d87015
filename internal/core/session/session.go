// Package session answers "is this session usable" and "may this user reach
// that route" from local evidence only, without a network round trip. Local
// verdicts are advisory: the verify endpoint remains the source of truth,
// so anything undecodable is deferred to it rather than rejected here.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// Admin markers matched against a role's identifier and display name.
var adminMarkers = []string{"admin", "SUPER ADMINISTRADOR"}

// DecodePayload decodes a bearer token's claims without verifying the
// signature. ok is false for anything that is not a three-segment JWT with
// a base64 JSON payload — opaque or encrypted tokens land here and must be
// treated as "unknown", not "invalid".
func DecodePayload(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// IsTokenExpired reports whether the token's exp claim lies at or before
// now. Pure function of (token, now). Undecodable tokens and tokens without
// an exp claim count as not expired; the backend gets the final word.
func IsTokenExpired(token string, now time.Time) bool {
	claims, ok := DecodePayload(token)
	if !ok {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return now.UnixMilli() >= exp.Unix()*1000
}

// IsValid reports whether a session is usable: a token is present and not
// locally determined to be expired. It performs no side effects — in
// particular it never triggers a logout, so it is safe to call from render
// paths and middleware any number of times.
func IsValid(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	return !IsTokenExpired(token, now)
}

// HasAccessToRoute reports whether user may reach the application route
// routeID. A role carrying an explicit allow-list decides by membership.
// A user whose record carries no allow-list structure at all is granted
// access: this fail-open fallback reproduces observed behavior and is
// flagged as a policy risk in DESIGN.md — do not tighten it silently.
func HasAccessToRoute(user *domain.User, routeID string) bool {
	if user == nil {
		return false
	}
	if user.Role.HasAllowList() {
		return user.Role.Allows(routeID)
	}
	return true
}

// IsAdmin reports whether the user's role matches one of the admin markers,
// by identifier or by display name.
func IsAdmin(user *domain.User) bool {
	if user == nil || user.Role == nil {
		return false
	}
	for _, marker := range adminMarkers {
		if user.Role.ID == marker || user.Role.Name == marker {
			return true
		}
	}
	return false
}
