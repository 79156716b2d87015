package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// Subscriber consumes proposal events from JetStream (used by the reviewer
// worker).
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeProposalSubmitted(ctx context.Context, handler func(ctx context.Context, p *domain.Proposal) error) error {
	sub, err := s.js.Subscribe("rutas.proposals.submitted.>", func(msg *nats.Msg) {
		var p domain.Proposal
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &p); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("proposal-review-starter"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeProposalReviewed(ctx context.Context, handler func(ctx context.Context, p *domain.Proposal) error) error {
	sub, err := s.js.Subscribe("rutas.proposals.reviewed.>", func(msg *nats.Msg) {
		var p domain.Proposal
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &p); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("proposal-review-resolver"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
