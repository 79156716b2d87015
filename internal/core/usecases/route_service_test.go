package usecases_test

import (
	"context"
	"testing"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/usecases"
)

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	listActiveFn func(ctx context.Context) ([]domain.Route, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.Route, error)
	createFn     func(ctx context.Context, r *domain.Route) error
	deactivateFn func(ctx context.Context, id, by string) error
}

func (m *mockRouteRepo) Create(ctx context.Context, r *domain.Route) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	return nil
}
func (m *mockRouteRepo) Update(ctx context.Context, r *domain.Route) error { return nil }

func (m *mockRouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRouteRepo) ListActive(ctx context.Context) ([]domain.Route, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

func (m *mockRouteRepo) Search(ctx context.Context, query string, limit int) ([]domain.Route, error) {
	return nil, nil
}

func (m *mockRouteRepo) Deactivate(ctx context.Context, id, by string) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, id, by)
	}
	return nil
}

func fixtureRoutes() []domain.Route {
	return []domain.Route{
		{
			ID: "B", From: "Playas", To: "Centro",
			Landmarks: []string{"Faro"},
			Path:      domain.GeoPath{{Lat: 32.5050, Lon: -116.9750}},
		},
		{
			ID: "A", From: "Otay", To: "Zona Rio",
			Landmarks: []string{"Aeropuerto"},
			Path:      domain.GeoPath{{Lat: 32.5332, Lon: -117.0365}},
		},
	}
}

func TestRouteService_List_NoLocationKeepsOrder(t *testing.T) {
	repo := &mockRouteRepo{
		listActiveFn: func(ctx context.Context) ([]domain.Route, error) { return fixtureRoutes(), nil },
	}
	svc := usecases.NewRouteService(repo, nil, nil)

	routes, err := svc.List(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 2 || routes[0].ID != "B" || routes[1].ID != "A" {
		t.Errorf("expected insertion order [B A], got %v %v", routes[0].ID, routes[1].ID)
	}
	if routes[0].Score != nil {
		t.Error("no location given, routes should not carry scores")
	}
}

func TestRouteService_List_RanksByProximity(t *testing.T) {
	repo := &mockRouteRepo{
		listActiveFn: func(ctx context.Context) ([]domain.Route, error) { return fixtureRoutes(), nil },
	}
	svc := usecases.NewRouteService(repo, nil, nil)

	near := &domain.GeoPoint{Lat: 32.52, Lon: -117.03}
	routes, err := svc.List(context.Background(), "", near)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if routes[0].ID != "A" || routes[1].ID != "B" {
		t.Errorf("expected proximity order [A B], got %v %v", routes[0].ID, routes[1].ID)
	}
	if routes[0].Score == nil || routes[0].DistanceLabel == "" {
		t.Error("ranked routes should carry score and distance label")
	}
}

func TestRouteService_List_FiltersByNameAndLandmarks(t *testing.T) {
	repo := &mockRouteRepo{
		listActiveFn: func(ctx context.Context) ([]domain.Route, error) { return fixtureRoutes(), nil },
	}
	svc := usecases.NewRouteService(repo, nil, nil)

	routes, _ := svc.List(context.Background(), "otay", nil)
	if len(routes) != 1 || routes[0].ID != "A" {
		t.Errorf("name filter failed: %+v", routes)
	}

	routes, _ = svc.List(context.Background(), "faro", nil)
	if len(routes) != 1 || routes[0].ID != "B" {
		t.Errorf("landmark filter failed: %+v", routes)
	}

	routes, _ = svc.List(context.Background(), "nothing-matches", nil)
	if len(routes) != 0 {
		t.Errorf("expected empty result, got %d", len(routes))
	}
}

func TestRouteService_Create_RejectsEmptyPath(t *testing.T) {
	svc := usecases.NewRouteService(&mockRouteRepo{}, nil, nil)
	err := svc.Create(context.Background(), &domain.Route{From: "x", To: "y"}, "admin")
	if err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRouteService_Create_SetsDefaults(t *testing.T) {
	var created *domain.Route
	repo := &mockRouteRepo{
		createFn: func(ctx context.Context, r *domain.Route) error {
			created = r
			return nil
		},
	}
	svc := usecases.NewRouteService(repo, nil, nil)

	r := &domain.Route{From: "Otay", To: "Centro", Path: domain.GeoPath{{Lat: 32.5, Lon: -117}}}
	if err := svc.Create(context.Background(), r, "admin@rutas.mx"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if !created.Active || created.Status != domain.RouteStatusActive {
		t.Errorf("expected active route, got active=%v status=%s", created.Active, created.Status)
	}
	if created.UpdatedBy != "admin@rutas.mx" {
		t.Errorf("expected audit field set, got %q", created.UpdatedBy)
	}
}

// --- Cache interaction ---

type mockCache struct {
	data map[string][]byte
	sets int
	gets int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.gets++
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, context.Canceled // any error means miss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestRouteService_List_UsesCache(t *testing.T) {
	calls := 0
	repo := &mockRouteRepo{
		listActiveFn: func(ctx context.Context) ([]domain.Route, error) {
			calls++
			return fixtureRoutes(), nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewRouteService(repo, cache, nil)

	if _, err := svc.List(context.Background(), "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.List(context.Background(), "", nil); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
	if cache.sets != 1 {
		t.Errorf("expected 1 cache fill, got %d", cache.sets)
	}
}

func TestRouteService_Deactivate_InvalidatesCache(t *testing.T) {
	repo := &mockRouteRepo{
		listActiveFn: func(ctx context.Context) ([]domain.Route, error) { return fixtureRoutes(), nil },
	}
	cache := newMockCache()
	svc := usecases.NewRouteService(repo, cache, nil)

	_, _ = svc.List(context.Background(), "", nil)
	if len(cache.data) != 1 {
		t.Fatal("expected cached listing")
	}
	if err := svc.Deactivate(context.Background(), "A", "admin"); err != nil {
		t.Fatal(err)
	}
	if len(cache.data) != 0 {
		t.Error("expected cache invalidated after deactivate")
	}
}
