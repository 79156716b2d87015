package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "PROPOSALS",
			Subjects:  []string{"rutas.proposals.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "ROUTE_EVENTS",
			Subjects:  []string{"rutas.routes.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishProposalSubmitted(ctx context.Context, proposal *domain.Proposal) error {
	data, err := json.Marshal(proposal)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("rutas.proposals.submitted."+proposal.ID, data)
	return err
}

func (p *Publisher) PublishProposalReviewed(ctx context.Context, proposal *domain.Proposal) error {
	data, err := json.Marshal(proposal)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("rutas.proposals.reviewed."+proposal.ID, data)
	return err
}

func (p *Publisher) PublishRouteChanged(ctx context.Context, route *domain.Route) error {
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("rutas.routes.changed."+route.ID, data)
	return err
}

// PublishBroadcast fans out over plain NATS; map clients get it live or not
// at all.
func (p *Publisher) PublishBroadcast(ctx context.Context, subject string, payload []byte) error {
	if subject == "" {
		subject = "rutas.updates.broadcast"
	}
	return p.conn.Publish(subject, payload)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
