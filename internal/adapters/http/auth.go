package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/session"
	"github.com/tjtransit/rutas/internal/core/usecases"
	"github.com/tjtransit/rutas/internal/pkg/metrics"
)

const (
	localsUser  = "session_user"
	localsToken = "session_token"
)

// bearerToken extracts the token from the Authorization header. Missing or
// malformed headers yield "".
func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireSession authenticates the request. The cheap local expiry check
// runs first; only tokens that pass it reach the store. A token found
// expired is torn down as a side effect of Verify, so the next attempt with
// it is already an unknown session.
func RequireSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return errUnauthorized(c, "missing bearer token")
		}

		user, err := deps.Auth.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, usecases.ErrSessionExpired) {
				metrics.SessionsExpired.Inc()
				return errUnauthorized(c, "session expired")
			}
			return errUnauthorized(c, "invalid session")
		}

		c.Locals(localsUser, user)
		c.Locals(localsToken, token)
		return c.Next()
	}
}

// RequireAdmin gates admin-only endpoints. Must run after RequireSession.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := sessionUser(c)
		if !session.IsAdmin(user) {
			return errForbidden(c, "administrator role required")
		}
		return c.Next()
	}
}

// RequireRouteAccess gates an endpoint on the user's allow-list. Users
// without an allow-list pass (access control is opt-in per role).
func RequireRouteAccess(routeID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := sessionUser(c)
		if !session.HasAccessToRoute(user, routeID) {
			return errForbidden(c, "access to "+routeID+" not allowed")
		}
		return c.Next()
	}
}

// sessionUser returns the authenticated user set by RequireSession, or nil.
func sessionUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(localsUser).(*domain.User)
	return u
}
