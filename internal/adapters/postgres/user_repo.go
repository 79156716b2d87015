package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// UserRepo implements ports.UserRepository. The role, when present, is
// stored as jsonb so allow-lists survive round trips intact.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	role, _ := json.Marshal(u.Role)
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.Name, role, passwordHash, u.CreatedAt)
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, _, err := r.get(ctx, `WHERE id = $1`, id)
	return u, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*domain.User, string, error) {
	var (
		u    domain.User
		role []byte
		hash string
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, email, name, role, password_hash, created_at FROM users `+where,
		arg).Scan(&u.ID, &u.Email, &u.Name, &role, &hash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	if len(role) > 0 && string(role) != "null" {
		_ = json.Unmarshal(role, &u.Role)
	}
	return &u, hash, nil
}
