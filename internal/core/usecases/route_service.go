package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/ports"
	"github.com/tjtransit/rutas/internal/core/ranking"
)

const activeRoutesCacheKey = "routes:active"

// RouteService handles route listing, filtering, ranking and admin CRUD.
type RouteService struct {
	routes    ports.RouteRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewRouteService creates a new RouteService.
func NewRouteService(routes ports.RouteRepository, cache ports.CacheService, publisher ports.EventPublisher) *RouteService {
	return &RouteService{routes: routes, cache: cache, publisher: publisher}
}

// List returns active routes. A non-empty query filters on route name and
// landmarks. When near is non-nil the result is proximity-ranked with
// distance labels attached; a nil near (location unavailable) keeps
// insertion order — never an error.
func (s *RouteService) List(ctx context.Context, query string, near *domain.GeoPoint) ([]domain.Route, error) {
	routes, err := s.listActive(ctx)
	if err != nil {
		return nil, err
	}

	if query != "" {
		routes = filterRoutes(routes, query)
	}

	if near != nil {
		routes = ranking.RankRoutes(routes, *near)
		for i := range routes {
			if label, ok := ranking.DistanceToStartLabel(&routes[i], *near); ok {
				routes[i].DistanceLabel = label
			}
		}
	}

	return routes, nil
}

func (s *RouteService) listActive(ctx context.Context) ([]domain.Route, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, activeRoutesCacheKey); err == nil {
			var routes []domain.Route
			if err := json.Unmarshal(data, &routes); err == nil {
				return routes, nil
			}
		}
	}

	routes, err := s.routes.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// Routes change rarely; 2 minutes keeps the map snappy after edits.
	if s.cache != nil {
		if data, err := json.Marshal(routes); err == nil {
			_ = s.cache.Set(ctx, activeRoutesCacheKey, data, 120)
		}
	}

	return routes, nil
}

func filterRoutes(routes []domain.Route, query string) []domain.Route {
	q := strings.ToLower(query)
	var out []domain.Route
	for _, r := range routes {
		if strings.Contains(strings.ToLower(r.Name()), q) {
			out = append(out, r)
			continue
		}
		for _, l := range r.Landmarks {
			if strings.Contains(strings.ToLower(l), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// GetByID returns a route by its ID.
func (s *RouteService) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	return s.routes.GetByID(ctx, id)
}

// Search queries the repository directly (used when the active set is too
// large to filter in memory).
func (s *RouteService) Search(ctx context.Context, query string, limit int) ([]domain.Route, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.routes.Search(ctx, query, limit)
}

// Create stores a new active route. Admin-only; the caller enforces that.
func (s *RouteService) Create(ctx context.Context, route *domain.Route, createdBy string) error {
	if len(route.Path) == 0 {
		return fmt.Errorf("route path must not be empty")
	}
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	route.Active = true
	route.Status = domain.RouteStatusActive
	route.UpdatedBy = createdBy
	route.CreatedAt = time.Now()
	route.UpdatedAt = route.CreatedAt

	if err := s.routes.Create(ctx, route); err != nil {
		return fmt.Errorf("create route: %w", err)
	}
	s.invalidate(ctx)
	if s.publisher != nil {
		_ = s.publisher.PublishRouteChanged(ctx, route)
	}
	return nil
}

// Update modifies an existing route.
func (s *RouteService) Update(ctx context.Context, route *domain.Route, updatedBy string) error {
	route.UpdatedBy = updatedBy
	route.UpdatedAt = time.Now()
	if err := s.routes.Update(ctx, route); err != nil {
		return fmt.Errorf("update route: %w", err)
	}
	s.invalidate(ctx)
	if s.publisher != nil {
		_ = s.publisher.PublishRouteChanged(ctx, route)
	}
	return nil
}

// Deactivate soft-deletes a route; it drops out of listings but stays in
// storage for audit.
func (s *RouteService) Deactivate(ctx context.Context, id, updatedBy string) error {
	if err := s.routes.Deactivate(ctx, id, updatedBy); err != nil {
		return fmt.Errorf("deactivate route: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *RouteService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, activeRoutesCacheKey)
	}
}
