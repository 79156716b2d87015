package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/tjtransit/rutas/internal/core/domain"
)

const sessionKeyPrefix = "session:"

// SessionStore implements ports.SessionStore on Valkey. A session is one
// key holding the user record, so token and user are written and removed
// together — a reader never sees one without the other.
type SessionStore struct {
	client valkey.Client
	ttl    time.Duration
}

// NewSessionStore creates a session store. ttl bounds how long a session
// record outlives its last write; it should exceed the token lifetime so
// expiry is always decided from the token, not the store.
func NewSessionStore(addr string, ttl time.Duration) (*SessionStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &SessionStore{client: client, ttl: ttl}, nil
}

// Put stores the session record under the token.
func (s *SessionStore) Put(ctx context.Context, token string, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(sessionKeyPrefix+token).Value(string(data)).Ex(s.ttl).Build(),
	)
	return cmd.Error()
}

// Get resolves a token to its user.
func (s *SessionStore) Get(ctx context.Context, token string) (*domain.User, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(sessionKeyPrefix+token).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	data, err := cmd.AsBytes()
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return &user, nil
}

// Delete removes the session. Deleting a missing key is not an error, which
// keeps logout idempotent.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	cmd := s.client.Do(ctx, s.client.B().Del().Key(sessionKeyPrefix+token).Build())
	return cmd.Error()
}

// Close releases the client.
func (s *SessionStore) Close() {
	s.client.Close()
}
