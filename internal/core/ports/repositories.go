package ports

import (
	"context"
	"time"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// RouteRepository persists routes.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.Route) error
	Update(ctx context.Context, route *domain.Route) error
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	ListActive(ctx context.Context) ([]domain.Route, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Route, error)
	Deactivate(ctx context.Context, id, updatedBy string) error
}

// ProposalRepository persists route proposals and their review outcomes.
type ProposalRepository interface {
	Create(ctx context.Context, p *domain.Proposal) error
	GetByID(ctx context.Context, id string) (*domain.Proposal, error)
	ListPending(ctx context.Context) ([]domain.Proposal, error)
	Update(ctx context.Context, p *domain.Proposal) error
	Approve(ctx context.Context, id, approvedBy string, reviewedAt time.Time) error
	Reject(ctx context.Context, id, rejectedBy, reason string, reviewedAt time.Time) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User, passwordHash string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, string, error)
}
