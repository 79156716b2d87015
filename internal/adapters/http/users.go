package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tjtransit/rutas/internal/core/usecases"
	"github.com/tjtransit/rutas/internal/pkg/metrics"
)

// RegisterHandler creates an account and returns a fresh session.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		resp, err := deps.Auth.Register(c.UserContext(), body.Email, body.Name, body.Password)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		metrics.SessionsOpened.WithLabelValues("register").Inc()
		return c.Status(201).JSON(resp)
	}
}

// LoginHandler verifies credentials and returns a session. Unknown email
// and wrong password produce the same response.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		resp, err := deps.Auth.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			if errors.Is(err, usecases.ErrInvalidCredentials) {
				return errUnauthorized(c, "invalid credentials")
			}
			return errInternal(c, err.Error())
		}
		metrics.SessionsOpened.WithLabelValues("login").Inc()
		return c.JSON(resp)
	}
}

// GoogleLoginHandler exchanges a Google credential for a session. mode is
// "login" or "register".
func GoogleLoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Credential string `json:"credential"`
			Mode       string `json:"mode"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Credential == "" {
			return errBadRequest(c, "credential is required")
		}
		if body.Mode == "" {
			body.Mode = "login"
		}

		resp, err := deps.Auth.FederatedLogin(c.UserContext(), body.Credential, body.Mode)
		if err != nil {
			return errUnauthorized(c, err.Error())
		}
		metrics.SessionsOpened.WithLabelValues("google").Inc()
		return c.JSON(resp)
	}
}

// VerifyHandler is the authoritative session check; an expired token is
// torn down before the 401 goes out.
func VerifyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		user, err := deps.Auth.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, usecases.ErrSessionExpired) {
				metrics.SessionsExpired.Inc()
				return errUnauthorized(c, "session expired")
			}
			return errUnauthorized(c, "invalid session")
		}
		return c.JSON(user)
	}
}

// SessionHandler is the cheap, side-effect-free validity probe clients may
// call on every page change.
func SessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		return c.JSON(fiber.Map{"valid": deps.Auth.IsSessionValid(token)})
	}
}

// LogoutHandler tears the session down. Always a 204: logging out twice or
// with no session is fine.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if err := deps.Auth.Logout(c.UserContext(), token); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}
