package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tjtransit/rutas/internal/core/ports"
	"github.com/tjtransit/rutas/internal/core/usecases"
)

// reviewerID is recorded as the reviewer on auto-rejected proposals.
const reviewerID = "sistema"

// staleReason is the rejection reason for proposals nobody reviewed in time.
const staleReason = "sin revisión antes del plazo límite"

// ReviewActivities holds the activity implementations for the proposal
// review workflow.
type ReviewActivities struct {
	Proposals *usecases.ProposalService
	Notifier  ports.Notifier
	// AdminRecipients receive new-proposal notices. Typically a group
	// alias consumed by the notifications feed.
	AdminRecipients []string
}

// NotifyAdminsOfProposal tells the admin recipients a proposal is waiting.
func (a *ReviewActivities) NotifyAdminsOfProposal(ctx context.Context, proposalID, proposedBy, routeName string) error {
	if a.Notifier == nil || len(a.AdminRecipients) == 0 {
		slog.Info("no admin recipients configured, skipping notice", "proposal_id", proposalID)
		return nil
	}

	body := fmt.Sprintf("%s propuso la ruta %s. Pendiente de revisión.", proposedBy, routeName)
	for _, recipient := range a.AdminRecipients {
		if err := a.Notifier.Notify(ctx, recipient, "Nueva propuesta de ruta", body); err != nil {
			return fmt.Errorf("notify %s: %w", recipient, err)
		}
	}
	return nil
}

// RejectStaleProposal rejects a proposal whose review deadline has passed.
// The proposal service notifies the proposer and publishes the review event;
// its status guard makes this a failure if an admin got there first.
func (a *ReviewActivities) RejectStaleProposal(ctx context.Context, proposalID string) error {
	if _, err := a.Proposals.Reject(ctx, proposalID, reviewerID, staleReason); err != nil {
		return fmt.Errorf("auto-reject proposal %s: %w", proposalID, err)
	}
	slog.Info("stale proposal auto-rejected", "proposal_id", proposalID)
	return nil
}
