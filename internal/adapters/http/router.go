package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/tjtransit/rutas/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecated endpoints still served during the migration window
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/routes/delete",
			SunsetDate:  time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/routes/{id}",
		},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Public map surface
	v1.Get("/routes", timeout.NewWithContext(ListRoutesHandler(deps), 15*time.Second))
	v1.Get("/routes/search", timeout.NewWithContext(SearchRoutesHandler(deps), 15*time.Second))
	v1.Get("/routes/:id", timeout.NewWithContext(GetRouteHandler(deps), 15*time.Second))
	v1.Get("/location/best", timeout.NewWithContext(BestLocationHandler(deps), 15*time.Second))

	// Accounts and sessions
	user := v1.Group("/user")
	user.Post("/register", timeout.NewWithContext(RegisterHandler(deps), 15*time.Second))
	user.Post("/login", timeout.NewWithContext(LoginHandler(deps), 15*time.Second))
	user.Post("/google", timeout.NewWithContext(GoogleLoginHandler(deps), 15*time.Second))
	user.Get("/verify", timeout.NewWithContext(VerifyHandler(deps), 15*time.Second))
	user.Get("/session", SessionHandler(deps))
	user.Post("/logout", timeout.NewWithContext(LogoutHandler(deps), 15*time.Second))

	// Proposals: submitting needs a session, reviewing needs an admin
	v1.Post("/routes/propose", RequireSession(deps),
		timeout.NewWithContext(ProposeRouteHandler(deps), 15*time.Second))

	admin := v1.Group("", RequireSession(deps), RequireAdmin())
	admin.Get("/proposals/pending", RequireRouteAccess("/admin-proposals"),
		timeout.NewWithContext(ListPendingProposalsHandler(deps), 15*time.Second))
	admin.Get("/proposals/:id", timeout.NewWithContext(GetProposalHandler(deps), 15*time.Second))
	admin.Put("/proposals/:id", timeout.NewWithContext(UpdateProposalHandler(deps), 15*time.Second))
	admin.Post("/proposals/:id/approve", timeout.NewWithContext(ApproveProposalHandler(deps), 15*time.Second))
	admin.Post("/proposals/:id/reject", timeout.NewWithContext(RejectProposalHandler(deps), 15*time.Second))

	// Route administration
	admin.Post("/routes", timeout.NewWithContext(CreateRouteHandler(deps), 15*time.Second))
	admin.Put("/routes/delete", timeout.NewWithContext(LegacyDeleteRouteHandler(deps), 15*time.Second))
	admin.Put("/routes/:id", timeout.NewWithContext(UpdateRouteHandler(deps), 15*time.Second))
	admin.Delete("/routes/:id", timeout.NewWithContext(DeleteRouteHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
