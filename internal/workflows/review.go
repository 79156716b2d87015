package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ReviewSignal is the signal name carrying a review decision into a
// running ReviewWorkflow.
const ReviewSignal = "proposal-reviewed"

// ReviewDecision is delivered via ReviewSignal when an admin decides.
type ReviewDecision struct {
	Outcome    string // "approved" | "rejected"
	ReviewedBy string
}

// ReviewInput is the input for the proposal review workflow.
type ReviewInput struct {
	ProposalID string
	ProposedBy string
	RouteName  string
	// Deadline after which an unreviewed proposal is auto-rejected.
	// Zero means the default of 14 days.
	ReviewDeadline time.Duration
}

const defaultReviewDeadline = 14 * 24 * time.Hour

// ReviewWorkflow tracks a route proposal through review. It notifies the
// admins, then waits for a decision signal. A proposal nobody reviews
// before the deadline is auto-rejected so the queue cannot silt up.
func ReviewWorkflow(ctx workflow.Context, input ReviewInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting proposal review workflow", "proposalID", input.ProposalID)

	deadline := input.ReviewDeadline
	if deadline <= 0 {
		deadline = defaultReviewDeadline
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: tell the admins there is something to review.
	err := workflow.ExecuteActivity(ctx, "NotifyAdminsOfProposal", input.ProposalID, input.ProposedBy, input.RouteName).Get(ctx, nil)
	if err != nil {
		logger.Warn("admin notification failed, review continues", "error", err)
	}

	// Step 2: wait for a decision or the deadline, whichever comes first.
	var decision ReviewDecision
	decided := false

	selector := workflow.NewSelector(ctx)
	selector.AddReceive(workflow.GetSignalChannel(ctx, ReviewSignal), func(ch workflow.ReceiveChannel, more bool) {
		ch.Receive(ctx, &decision)
		decided = true
	})
	selector.AddFuture(workflow.NewTimer(ctx, deadline), func(f workflow.Future) {})
	selector.Select(ctx)

	if decided {
		logger.Info("Proposal reviewed", "proposalID", input.ProposalID,
			"outcome", decision.Outcome, "reviewedBy", decision.ReviewedBy)
		return nil
	}

	// Deadline hit: auto-reject the stale proposal.
	logger.Info("Review deadline passed, auto-rejecting", "proposalID", input.ProposalID)
	err = workflow.ExecuteActivity(ctx, "RejectStaleProposal", input.ProposalID).Get(ctx, nil)
	if err != nil {
		// The proposal may have been reviewed in the gap between the timer
		// firing and the activity running; the status guard makes the
		// reject a no-op failure in that case.
		logger.Warn("auto-reject failed", "proposalID", input.ProposalID, "error", err)
		return nil
	}

	return nil
}
