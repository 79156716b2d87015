package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/tjtransit/rutas/internal/adapters/nats"
	"github.com/tjtransit/rutas/internal/adapters/postgres"
	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/usecases"
	"github.com/tjtransit/rutas/internal/pkg/config"
	"github.com/tjtransit/rutas/internal/pkg/logging"
	"github.com/tjtransit/rutas/internal/workflows"
)

// The reviewer worker bridges proposal events to Temporal: a submitted
// proposal starts a review workflow, a review decision signals it closed.
// The workflow auto-rejects proposals nobody reviews before the deadline.
func main() {
	cfg, err := config.Load("rutas-reviewer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("rutas-reviewer", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database + services backing the activities
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()
	notifier := natsadapter.NewNotifier(pub)

	routeRepo := postgres.NewRouteRepo(db)
	proposalRepo := postgres.NewProposalRepo(db)
	proposalSvc := usecases.NewProposalService(proposalRepo, routeRepo, pub, notifier)

	// Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ReviewWorkflow)
	w.RegisterActivity(&workflows.ReviewActivities{
		Proposals:       proposalSvc,
		Notifier:        notifier,
		AdminRecipients: []string{"admins"},
	})

	// Bridge NATS proposal events to workflows
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeProposalSubmitted(ctx, func(ctx context.Context, p *domain.Proposal) error {
		_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "proposal-review-" + p.ID,
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.ReviewWorkflow, workflows.ReviewInput{
			ProposalID: p.ID,
			ProposedBy: p.ProposedBy,
			RouteName:  p.Route.Name(),
		})
		if err != nil {
			slog.Error("start review workflow", "proposal_id", p.ID, "error", err)
			return err
		}
		slog.Info("review workflow started", "proposal_id", p.ID)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe submitted: %v", err)
	}

	err = sub.SubscribeProposalReviewed(ctx, func(ctx context.Context, p *domain.Proposal) error {
		reviewedBy := p.ApprovedBy
		if reviewedBy == "" {
			reviewedBy = p.RejectedBy
		}
		err := c.SignalWorkflow(ctx, "proposal-review-"+p.ID, "", workflows.ReviewSignal,
			workflows.ReviewDecision{Outcome: p.Status, ReviewedBy: reviewedBy})
		if err != nil {
			// The workflow may already be closed (auto-reject raced the
			// decision); that is not a redelivery case.
			slog.Warn("signal review workflow", "proposal_id", p.ID, "error", err)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe reviewed: %v", err)
	}

	slog.Info("reviewer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
