package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/ports"
	"github.com/tjtransit/rutas/internal/pkg/metrics"
)

// ListRoutesHandler lists active routes. q filters on name and landmarks;
// lat/lon rank the result by proximity and attach distance labels. Without
// lat/lon the listing comes back in insertion order — a client that could
// not obtain a position still gets the full map.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		var near *domain.GeoPoint
		ranked := "false"
		if c.Query("lat") != "" && c.Query("lon") != "" {
			lat := c.QueryFloat("lat", 0)
			lon := c.QueryFloat("lon", 0)
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return errBadRequest(c, "lat/lon out of range")
			}
			near = &domain.GeoPoint{Lat: lat, Lon: lon}
			ranked = "true"
		}

		routes, err := deps.Routes.List(c.UserContext(), query, near)
		if err != nil {
			return errInternal(c, err.Error())
		}
		metrics.RouteListings.WithLabelValues(ranked).Inc()

		window, pg := paginate(c, routes, 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: window, Pagination: pg})
	}
}

// GetRouteHandler returns a route by ID.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}
		route, err := deps.Routes.GetByID(c.UserContext(), id)
		if err != nil {
			return errNotFound(c, "route not found")
		}
		return c.JSON(route)
	}
}

// SearchRoutesHandler queries routes in the repository (name and landmarks).
func SearchRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)

		routes, err := deps.Routes.Search(c.UserContext(), query, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(routes)
	}
}

// CreateRouteHandler stores a new active route. Admin only.
func CreateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var route domain.Route
		if err := c.BodyParser(&route); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if route.From == "" || route.To == "" {
			return errBadRequest(c, "from and to are required")
		}

		user := sessionUser(c)
		if err := deps.Routes.Create(c.UserContext(), &route, user.Email); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(201).JSON(route)
	}
}

// UpdateRouteHandler modifies an existing route. Admin only.
func UpdateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}

		var route domain.Route
		if err := c.BodyParser(&route); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		route.ID = id

		user := sessionUser(c)
		if err := deps.Routes.Update(c.UserContext(), &route, user.Email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "route not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(route)
	}
}

// DeleteRouteHandler deactivates a route. Admin only.
func DeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}

		user := sessionUser(c)
		if err := deps.Routes.Deactivate(c.UserContext(), id, user.Email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "route not found")
			}
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// LegacyDeleteRouteHandler is the body-addressed delete kept for old
// clients; DELETE /v1/routes/:id is its successor. The deprecation headers
// are set by middleware.
func LegacyDeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			ID string `json:"id"`
		}
		if err := c.BodyParser(&body); err != nil || body.ID == "" {
			return errBadRequest(c, "id is required")
		}

		user := sessionUser(c)
		if err := deps.Routes.Deactivate(c.UserContext(), body.ID, user.Email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "route not found")
			}
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// BestLocationHandler acquires the best position fix for a client within
// the service's deadline. Refused permission is a 403, no fix at all a 503;
// anything else returns the fix with its accuracy.
func BestLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.Query("client_id")
		if clientID == "" {
			return errBadRequest(c, "client_id query parameter is required")
		}

		start := time.Now()
		fix, err := deps.Location.BestFix(c.UserContext(), clientID)
		metrics.LocationFixDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			switch {
			case errors.Is(err, ports.ErrPermissionDenied):
				metrics.LocationFixes.WithLabelValues("denied").Inc()
				return errForbidden(c, "location permission denied")
			case errors.Is(err, ports.ErrLocationUnavailable):
				metrics.LocationFixes.WithLabelValues("unavailable").Inc()
				return newError(c, 503, "location_unavailable", "no position fix available")
			default:
				metrics.LocationFixes.WithLabelValues("error").Inc()
				return errInternal(c, err.Error())
			}
		}
		metrics.LocationFixes.WithLabelValues("ok").Inc()

		c.Set("Cache-Control", "no-store")
		return c.JSON(fix)
	}
}
