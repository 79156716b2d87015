//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	handler "github.com/tjtransit/rutas/internal/adapters/http"
	"github.com/tjtransit/rutas/internal/adapters/postgres"
	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/usecases"
	"github.com/tjtransit/rutas/internal/pkg/config"
)

// setupTestDB connects to the test database and returns a clean DB instance.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("rutas-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache or broker.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	routeRepo := postgres.NewRouteRepo(db)
	proposalRepo := postgres.NewProposalRepo(db)
	userRepo := postgres.NewUserRepo(db)

	return &handler.Dependencies{
		Routes:    usecases.NewRouteService(routeRepo, nil, nil),
		Proposals: usecases.NewProposalService(proposalRepo, routeRepo, nil, nil),
		Auth:      usecases.NewAuthService(userRepo, newMockSessionStore(), nil, "integration-secret", time.Hour),
		Location:  usecases.NewLocationService(&fakeLocationProvider{}, time.Second, 15),
		DB:        db,
	}
}

// seedTestRoute inserts an active route and returns its ID.
func seedTestRoute(t *testing.T, db *postgres.DB, id, from, to string, start domain.GeoPoint) string {
	ctx := context.Background()
	path, _ := json.Marshal(domain.GeoPath{start})
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO routes (id, from_name, to_name, route_type, color, path, active, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'taxi', '#d32f2f', $4, true, 'active', now(), now())
		ON CONFLICT (id) DO UPDATE SET from_name = EXCLUDED.from_name
	`, id, from, to, path); err != nil {
		t.Fatalf("seed route: %v", err)
	}
	return id
}

// TestListRoutes_Integration_WithRealDB tests route listing against real database.
func TestListRoutes_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestRoute(t, db, "itest-otay", "Otay", "Centro", domain.GeoPoint{Lat: 32.5332, Lon: -117.0365})
	seedTestRoute(t, db, "itest-playas", "Playas", "Centro", domain.GeoPoint{Lat: 32.5050, Lon: -116.9750})

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Route      `json:"data"`
		Pagination struct{ Total int } `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if result.Pagination.Total < 2 {
		t.Errorf("expected at least 2 routes, got %d", result.Pagination.Total)
	}
}

// TestListRoutes_Integration_Ranked tests proximity ranking against real data.
func TestListRoutes_Integration_Ranked(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestRoute(t, db, "itest-otay", "Otay", "Centro", domain.GeoPoint{Lat: 32.5332, Lon: -117.0365})
	seedTestRoute(t, db, "itest-playas", "Playas", "Centro", domain.GeoPoint{Lat: 32.5050, Lon: -116.9750})

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	// Rider near Zona Rio — Otay route starts closer than Playas.
	req := httptest.NewRequest("GET", "/v1/routes?lat=32.52&lon=-117.03", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data []domain.Route `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(result.Data) < 2 {
		t.Fatalf("expected at least 2 routes, got %d", len(result.Data))
	}
	if result.Data[0].Score == nil {
		t.Error("expected ranked listing to carry scores")
	}
}

// TestProposalLifecycle_Integration drives propose → approve against real database.
func TestProposalLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	deps := setupTestDeps(t, db)

	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")
	resp, err := deps.Auth.Register(ctx, "itest-"+suffix+"@rutas.mx", "Integration", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	proposal, err := deps.Proposals.Propose(ctx, domain.Route{
		From: "La Mesa", To: "Centro",
		Path: domain.GeoPath{{Lat: 32.5121, Lon: -116.9922}},
	}, resp.User.Email)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	if _, err := deps.Proposals.Approve(ctx, proposal.ID, "admin@rutas.mx"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Second review of the same proposal must fail on the status guard.
	if _, err := deps.Proposals.Approve(ctx, proposal.ID, "admin@rutas.mx"); err == nil {
		t.Error("expected second approve to fail")
	}

	route, err := deps.Routes.GetByID(ctx, proposal.Route.ID)
	if err != nil {
		t.Fatalf("get promoted route: %v", err)
	}
	if !route.Active {
		t.Error("promoted route must be active")
	}
}
