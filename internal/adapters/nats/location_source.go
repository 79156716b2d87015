package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/ports"
)

const (
	locationStartSubject = "rutas.location.start."
	locationFixSubject   = "rutas.location.fix."
	locationQuerySubject = "rutas.location.query."
)

// locationMessage is the wire form of a device fix. Denied marks a
// permission refusal from the device.
type locationMessage struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
	Denied   bool    `json:"denied,omitempty"`
}

// LocationSource implements ports.LocationProvider over plain NATS. The
// client device streams fixes on rutas.location.fix.<clientID> after a
// start request; a one-shot query uses request-reply.
type LocationSource struct {
	conn *nats.Conn
}

// NewLocationSource wraps an existing connection; callers own its lifetime.
func NewLocationSource(conn *nats.Conn) *LocationSource {
	return &LocationSource{conn: conn}
}

// Watch asks the device to start streaming and subscribes to its fixes. The
// returned stop function must be called on every exit path; it tears the
// subscription down and closes the channel.
func (l *LocationSource) Watch(ctx context.Context, clientID string) (<-chan domain.LocationFix, func(), error) {
	// The start round-trip doubles as the permission check.
	reply, err := l.conn.RequestWithContext(ctx, locationStartSubject+clientID, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("location start: %w", err)
	}
	var ack locationMessage
	if err := json.Unmarshal(reply.Data, &ack); err == nil && ack.Denied {
		return nil, nil, ports.ErrPermissionDenied
	}

	fixes := make(chan domain.LocationFix, 8)
	sub, err := l.conn.Subscribe(locationFixSubject+clientID, func(msg *nats.Msg) {
		var m locationMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return
		}
		fix := domain.LocationFix{
			Location: domain.GeoPoint{Lat: m.Lat, Lon: m.Lon},
			Accuracy: m.Accuracy,
			ClientID: clientID,
		}
		select {
		case fixes <- fix:
		default: // slow consumer, drop the stale fix
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("location subscribe: %w", err)
	}

	// The channel is left open: a callback may still be in flight when stop
	// runs, and the consumer exits on deadline or context anyway.
	stop := func() {
		_ = sub.Unsubscribe()
	}
	return fixes, stop, nil
}

// Current asks the device for a single fix.
func (l *LocationSource) Current(ctx context.Context, clientID string) (*domain.LocationFix, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	reply, err := l.conn.RequestWithContext(queryCtx, locationQuerySubject+clientID, nil)
	if err != nil {
		return nil, ports.ErrLocationUnavailable
	}
	var m locationMessage
	if err := json.Unmarshal(reply.Data, &m); err != nil {
		return nil, ports.ErrLocationUnavailable
	}
	if m.Denied {
		return nil, ports.ErrPermissionDenied
	}
	return &domain.LocationFix{
		Location: domain.GeoPoint{Lat: m.Lat, Lon: m.Lon},
		Accuracy: m.Accuracy,
		ClientID: clientID,
	}, nil
}
