package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository. The path and landmarks are
// stored as jsonb; the rest of the route is flat columns.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

func (r *RouteRepo) Create(ctx context.Context, route *domain.Route) error {
	path, err := json.Marshal(route.Path)
	if err != nil {
		return fmt.Errorf("encode path: %w", err)
	}
	landmarks, _ := json.Marshal(route.Landmarks)
	schedule, _ := json.Marshal(route.Schedule)

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO routes (id, from_name, to_name, route_type, color, description,
		                    schedule, landmarks, path, active, status, updated_by,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, route.ID, route.From, route.To, route.Type, route.Color, route.Description,
		schedule, landmarks, path, route.Active, route.Status, route.UpdatedBy,
		route.CreatedAt, route.UpdatedAt)
	return err
}

func (r *RouteRepo) Update(ctx context.Context, route *domain.Route) error {
	path, err := json.Marshal(route.Path)
	if err != nil {
		return fmt.Errorf("encode path: %w", err)
	}
	landmarks, _ := json.Marshal(route.Landmarks)
	schedule, _ := json.Marshal(route.Schedule)

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE routes
		SET from_name = $2, to_name = $3, route_type = $4, color = $5,
		    description = $6, schedule = $7, landmarks = $8, path = $9,
		    active = $10, status = $11, updated_by = $12, updated_at = $13
		WHERE id = $1
	`, route.ID, route.From, route.To, route.Type, route.Color, route.Description,
		schedule, landmarks, path, route.Active, route.Status, route.UpdatedBy,
		route.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const routeColumns = `id, from_name, to_name, route_type, color, description,
	schedule, landmarks, path, active, status, updated_by, created_at, updated_at`

func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = $1`, id)
	route, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return route, err
}

func (r *RouteRepo) ListActive(ctx context.Context) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoutes(rows)
}

// Search matches the display name ("from - to") and landmark text in SQL so
// large sets need not be filtered in memory.
func (r *RouteRepo) Search(ctx context.Context, query string, limit int) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+routeColumns+`
		FROM routes
		WHERE active AND (
			(from_name || ' - ' || to_name) ILIKE '%' || $1 || '%'
			OR landmarks::text ILIKE '%' || $1 || '%'
		)
		ORDER BY created_at
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoutes(rows)
}

func (r *RouteRepo) Deactivate(ctx context.Context, id, by string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE routes SET active = false, updated_by = $2, updated_at = now()
		WHERE id = $1
	`, id, by)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*domain.Route, error) {
	var (
		rt        domain.Route
		schedule  []byte
		landmarks []byte
		path      []byte
	)
	err := row.Scan(&rt.ID, &rt.From, &rt.To, &rt.Type, &rt.Color, &rt.Description,
		&schedule, &landmarks, &path, &rt.Active, &rt.Status, &rt.UpdatedBy,
		&rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(schedule) > 0 {
		_ = json.Unmarshal(schedule, &rt.Schedule)
	}
	if len(landmarks) > 0 {
		_ = json.Unmarshal(landmarks, &rt.Landmarks)
	}
	if err := json.Unmarshal(path, &rt.Path); err != nil {
		return nil, fmt.Errorf("decode path: %w", err)
	}
	return &rt, nil
}

func collectRoutes(rows pgx.Rows) ([]domain.Route, error) {
	var routes []domain.Route
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *rt)
	}
	return routes, rows.Err()
}
