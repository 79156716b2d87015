package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tjtransit/rutas/internal/adapters/http"
	"github.com/tjtransit/rutas/internal/adapters/identity"
	natsadapter "github.com/tjtransit/rutas/internal/adapters/nats"
	"github.com/tjtransit/rutas/internal/adapters/postgres"
	"github.com/tjtransit/rutas/internal/adapters/valkey"
	"github.com/tjtransit/rutas/internal/core/ports"
	"github.com/tjtransit/rutas/internal/core/usecases"
	"github.com/tjtransit/rutas/internal/pkg/config"
	"github.com/tjtransit/rutas/internal/pkg/logging"
	"github.com/tjtransit/rutas/internal/pkg/metrics"
	"github.com/tjtransit/rutas/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("rutas-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("rutas-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Cache
	var routeCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		routeCache = cache
	}

	// Session store. TTL is twice the token lifetime so session expiry is
	// always decided from the token, never by a store eviction racing it.
	tokenTTL := time.Duration(cfg.Auth.TokenTTL) * time.Minute
	sessions, err := valkey.NewSessionStore(cfg.Valkey.Addr, 2*tokenTTL)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer sessions.Close()

	// NATS
	var publisher ports.EventPublisher
	var notifier ports.Notifier
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		notifier = natsadapter.NewNotifier(pub)
	}

	// Raw NATS connection for the WebSocket relay and the location source
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	var locations ports.LocationProvider
	if natsConn != nil {
		locations = natsadapter.NewLocationSource(natsConn)
	}

	// Federated sign-in (optional)
	var exchanger ports.IdentityProvider
	if cfg.Auth.IdentityURL != "" {
		exchanger = identity.NewGoogleExchanger(cfg.Auth.IdentityURL)
	}

	// Repos
	routeRepo := postgres.NewRouteRepo(db)
	proposalRepo := postgres.NewProposalRepo(db)
	userRepo := postgres.NewUserRepo(db)

	// Use cases
	routeSvc := usecases.NewRouteService(routeRepo, routeCache, publisher)
	proposalSvc := usecases.NewProposalService(proposalRepo, routeRepo, publisher, notifier)
	authSvc := usecases.NewAuthService(userRepo, sessions, exchanger, cfg.Auth.Secret, tokenTTL)
	locationSvc := usecases.NewLocationService(
		locations,
		time.Duration(cfg.Location.DeadlineSeconds)*time.Second,
		cfg.Location.AccuracyGoalMeters,
	)

	deps := &http.Dependencies{
		Routes:    routeSvc,
		Proposals: proposalSvc,
		Auth:      authSvc,
		Location:  locationSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Rutas Tijuana API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.rutastijuana.mx",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
