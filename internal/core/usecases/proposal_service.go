package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/ports"
)

// ProposalService handles the propose → review lifecycle for routes.
type ProposalService struct {
	proposals ports.ProposalRepository
	routes    ports.RouteRepository
	publisher ports.EventPublisher
	notifier  ports.Notifier
}

// NewProposalService creates a new ProposalService.
func NewProposalService(
	proposals ports.ProposalRepository,
	routes ports.RouteRepository,
	publisher ports.EventPublisher,
	notifier ports.Notifier,
) *ProposalService {
	return &ProposalService{proposals: proposals, routes: routes, publisher: publisher, notifier: notifier}
}

// Propose submits a route for review. The embedded route stays inactive
// until an administrator approves it.
func (s *ProposalService) Propose(ctx context.Context, route domain.Route, proposedBy string) (*domain.Proposal, error) {
	if len(route.Path) == 0 {
		return nil, fmt.Errorf("proposed route path must not be empty")
	}

	route.ID = uuid.NewString()
	route.Active = false
	route.Status = domain.RouteStatusPending

	p := &domain.Proposal{
		ID:         uuid.NewString(),
		Route:      route,
		ProposedBy: proposedBy,
		Status:     domain.RouteStatusPending,
		CreatedAt:  time.Now(),
	}

	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}

	if s.publisher != nil {
		_ = s.publisher.PublishProposalSubmitted(ctx, p)
	}
	return p, nil
}

// ListPending returns proposals awaiting review.
func (s *ProposalService) ListPending(ctx context.Context) ([]domain.Proposal, error) {
	return s.proposals.ListPending(ctx)
}

// GetByID returns a single proposal.
func (s *ProposalService) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	return s.proposals.GetByID(ctx, id)
}

// UpdatePending lets an administrator fix up a proposal before deciding on
// it. Only pending proposals may be edited.
func (s *ProposalService) UpdatePending(ctx context.Context, id string, route domain.Route) (*domain.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.RouteStatusPending {
		return nil, fmt.Errorf("proposal %s already reviewed", id)
	}

	route.ID = p.Route.ID
	route.Status = domain.RouteStatusPending
	p.Route = route
	if err := s.proposals.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update proposal: %w", err)
	}
	return p, nil
}

// Approve marks a proposal approved and promotes its route to the active
// set. Approving an already-reviewed proposal is an error.
func (s *ProposalService) Approve(ctx context.Context, id, approvedBy string) (*domain.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.RouteStatusPending {
		return nil, fmt.Errorf("proposal %s already reviewed", id)
	}

	now := time.Now()
	if err := s.proposals.Approve(ctx, id, approvedBy, now); err != nil {
		return nil, fmt.Errorf("approve proposal: %w", err)
	}

	route := p.Route
	route.Active = true
	route.Status = domain.RouteStatusActive
	route.UpdatedBy = approvedBy
	route.CreatedAt = now
	route.UpdatedAt = now
	if err := s.routes.Create(ctx, &route); err != nil {
		return nil, fmt.Errorf("promote approved route: %w", err)
	}

	p.Status = "approved"
	p.ApprovedBy = approvedBy
	p.ReviewedAt = &now

	if s.publisher != nil {
		_ = s.publisher.PublishProposalReviewed(ctx, p)
		_ = s.publisher.PublishRouteChanged(ctx, &route)
	}
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, p.ProposedBy, "Propuesta aprobada",
			fmt.Sprintf("Tu ruta %s fue aprobada.", route.Name()))
	}
	return p, nil
}

// Reject marks a proposal rejected with a reason. Best-effort notification;
// the decision stands even if the notice fails.
func (s *ProposalService) Reject(ctx context.Context, id, rejectedBy, reason string) (*domain.Proposal, error) {
	p, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.RouteStatusPending {
		return nil, fmt.Errorf("proposal %s already reviewed", id)
	}

	now := time.Now()
	if err := s.proposals.Reject(ctx, id, rejectedBy, reason, now); err != nil {
		return nil, fmt.Errorf("reject proposal: %w", err)
	}

	p.Status = domain.RouteStatusRejected
	p.RejectedBy = rejectedBy
	p.Reason = reason
	p.ReviewedAt = &now

	if s.publisher != nil {
		_ = s.publisher.PublishProposalReviewed(ctx, p)
	}
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, p.ProposedBy, "Propuesta rechazada",
			fmt.Sprintf("Tu ruta %s fue rechazada: %s", p.Route.Name(), reason))
	}
	return p, nil
}
