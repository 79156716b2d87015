package natsadapter

import (
	"context"
	"encoding/json"
	"time"
)

const notificationSubject = "rutas.notifications."

// Notifier implements ports.Notifier by publishing per-recipient messages;
// delivery channels (mail, push) consume them downstream.
type Notifier struct {
	pub *Publisher
}

func NewNotifier(pub *Publisher) *Notifier { return &Notifier{pub: pub} }

type notification struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

func (n *Notifier) Notify(ctx context.Context, recipient, subject, body string) error {
	data, err := json.Marshal(notification{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now(),
	})
	if err != nil {
		return err
	}
	return n.pub.conn.Publish(notificationSubject+recipient, data)
}
