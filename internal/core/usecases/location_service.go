package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/ports"
)

// LocationService acquires a position fix for a client as a cancellable
// task with a deadline and a best-result-so-far accumulator: it accepts
// fixes until one is accurate enough or the deadline passes, then settles
// for the best seen. A second request for the same client supersedes the
// in-flight one rather than queueing behind it.
type LocationService struct {
	provider ports.LocationProvider
	deadline time.Duration
	accuracy float64 // meters; a fix at or under this ends the watch early

	mu       sync.Mutex
	cached   map[string]domain.LocationFix
	inflight map[string]*inflightWatch
}

// inflightWatch identifies one BestFix call so a finished request only
// clears its own slot, never a successor's.
type inflightWatch struct {
	cancel context.CancelFunc
}

// NewLocationService creates a new LocationService. deadline bounds the
// watch; accuracyGoal is the radius in meters considered good enough to
// stop early.
func NewLocationService(provider ports.LocationProvider, deadline time.Duration, accuracyGoal float64) *LocationService {
	if deadline <= 0 {
		deadline = 5 * time.Second
	}
	if accuracyGoal <= 0 {
		accuracyGoal = 15
	}
	return &LocationService{
		provider: provider,
		deadline: deadline,
		accuracy: accuracyGoal,
		cached:   make(map[string]domain.LocationFix),
		inflight: make(map[string]*inflightWatch),
	}
}

// BestFix acquires a fix for clientID. Permission refusals fail
// immediately; everything else waits out the deadline and falls back to a
// one-shot query before reporting ErrLocationUnavailable. The watch is
// torn down on every exit path.
func (s *LocationService) BestFix(ctx context.Context, clientID string) (*domain.LocationFix, error) {
	if s.provider == nil {
		return nil, ports.ErrLocationUnavailable
	}

	watchCtx, cancel := context.WithCancel(ctx)
	watch := &inflightWatch{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.inflight[clientID]; ok {
		prev.cancel() // supersede, don't queue
	}
	s.inflight[clientID] = watch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		// Only clear the slot if a newer request hasn't claimed it.
		if s.inflight[clientID] == watch {
			delete(s.inflight, clientID)
		}
		s.mu.Unlock()
		cancel()
	}()

	fixes, stop, err := s.provider.Watch(watchCtx, clientID)
	if err != nil {
		if errors.Is(err, ports.ErrPermissionDenied) {
			return nil, err
		}
		return s.fallback(ctx, clientID)
	}
	defer stop()

	timer := time.NewTimer(s.deadline)
	defer timer.Stop()

	var best *domain.LocationFix
	for {
		select {
		case fix, open := <-fixes:
			if !open {
				return s.settle(ctx, clientID, best)
			}
			if best == nil || fix.Accuracy < best.Accuracy {
				f := fix
				best = &f
			}
			if fix.Accuracy <= s.accuracy {
				s.remember(clientID, *best)
				return best, nil
			}

		case <-timer.C:
			return s.settle(ctx, clientID, best)

		case <-watchCtx.Done():
			// Superseded by a newer request, or the caller gave up.
			return nil, watchCtx.Err()
		}
	}
}

// settle resolves a finished watch: best fix if any, otherwise one last
// direct query.
func (s *LocationService) settle(ctx context.Context, clientID string, best *domain.LocationFix) (*domain.LocationFix, error) {
	if best != nil {
		s.remember(clientID, *best)
		return best, nil
	}
	return s.fallback(ctx, clientID)
}

func (s *LocationService) fallback(ctx context.Context, clientID string) (*domain.LocationFix, error) {
	fix, err := s.provider.Current(ctx, clientID)
	if err != nil {
		if errors.Is(err, ports.ErrPermissionDenied) {
			return nil, err
		}
		return nil, ports.ErrLocationUnavailable
	}
	s.remember(clientID, *fix)
	return fix, nil
}

func (s *LocationService) remember(clientID string, fix domain.LocationFix) {
	s.mu.Lock()
	s.cached[clientID] = fix
	s.mu.Unlock()
}

// Cached returns the last successful fix for a client, if any. Fixes live
// in memory only and each success overwrites the previous one.
func (s *LocationService) Cached(clientID string) (*domain.LocationFix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fix, ok := s.cached[clientID]
	if !ok {
		return nil, false
	}
	return &fix, true
}
