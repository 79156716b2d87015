package ports

import (
	"context"
	"errors"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// ErrPermissionDenied is returned by a LocationProvider when the client
// refused to share its position. Callers fail fast on it instead of
// waiting out the fix deadline.
var ErrPermissionDenied = errors.New("location permission denied")

// ErrLocationUnavailable is returned when no fix could be obtained before
// the deadline. Callers degrade to unranked behavior, never crash.
var ErrLocationUnavailable = errors.New("location unavailable")

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishProposalSubmitted(ctx context.Context, p *domain.Proposal) error
	PublishProposalReviewed(ctx context.Context, p *domain.Proposal) error
	PublishRouteChanged(ctx context.Context, route *domain.Route) error
	PublishBroadcast(ctx context.Context, subject string, payload []byte) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// LocationProvider yields a stream of position fixes for a client.
// The returned stop function tears down the underlying watch; it must be
// safe to call more than once. ErrPermissionDenied distinguishes a refusal
// from transient unavailability.
type LocationProvider interface {
	Watch(ctx context.Context, clientID string) (<-chan domain.LocationFix, func(), error)
	// Current performs a one-shot query, used as a last resort when a watch
	// produced nothing before its deadline.
	Current(ctx context.Context, clientID string) (*domain.LocationFix, error)
}

// SessionStore holds the token and serialized user for a session, written
// atomically: a reader never observes one without the other.
type SessionStore interface {
	Put(ctx context.Context, token string, user *domain.User) error
	Get(ctx context.Context, token string) (*domain.User, error)
	Delete(ctx context.Context, token string) error
}

// Notifier delivers out-of-band messages to users (proposal decisions).
type Notifier interface {
	Notify(ctx context.Context, userID, title, body string) error
}

// IdentityProvider exchanges a federated sign-in credential for an
// authentication payload. The raw body is returned as-is because upstream
// providers answer in two shapes (flat {token,user} or nested under
// "data"); normalization happens in the session package.
type IdentityProvider interface {
	ExchangeCredential(ctx context.Context, credential, mode string) ([]byte, error)
}
