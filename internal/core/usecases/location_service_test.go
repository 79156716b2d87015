package usecases_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/ports"
	"github.com/tjtransit/rutas/internal/core/usecases"
)

// --- Fake LocationProvider ---

type fakeLocationProvider struct {
	watchErr   error
	fixes      []domain.LocationFix
	closeAfter bool // close the channel after the scripted fixes

	currentFix *domain.LocationFix
	currentErr error

	stops atomic.Int32
}

func (f *fakeLocationProvider) Watch(ctx context.Context, clientID string) (<-chan domain.LocationFix, func(), error) {
	if f.watchErr != nil {
		return nil, nil, f.watchErr
	}
	ch := make(chan domain.LocationFix, len(f.fixes))
	for _, fix := range f.fixes {
		ch <- fix
	}
	if f.closeAfter {
		close(ch)
	}
	stop := func() { f.stops.Add(1) }
	return ch, stop, nil
}

func (f *fakeLocationProvider) Current(ctx context.Context, clientID string) (*domain.LocationFix, error) {
	return f.currentFix, f.currentErr
}

func fix(acc float64) domain.LocationFix {
	return domain.LocationFix{
		Location: domain.GeoPoint{Lat: 32.5149, Lon: -117.0382},
		Accuracy: acc,
	}
}

func TestLocationService_BestFix_AccurateFixEndsEarly(t *testing.T) {
	provider := &fakeLocationProvider{fixes: []domain.LocationFix{fix(80), fix(10)}}
	svc := usecases.NewLocationService(provider, time.Minute, 15)

	start := time.Now()
	got, err := svc.BestFix(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Accuracy != 10 {
		t.Errorf("expected the 10 m fix, got %v m", got.Accuracy)
	}
	if time.Since(start) > time.Second {
		t.Error("accurate fix must end the watch well before the deadline")
	}
	if provider.stops.Load() != 1 {
		t.Errorf("watch not torn down, stops=%d", provider.stops.Load())
	}
}

func TestLocationService_BestFix_DeadlineReturnsBestSeen(t *testing.T) {
	provider := &fakeLocationProvider{fixes: []domain.LocationFix{fix(120), fix(40), fix(90)}}
	svc := usecases.NewLocationService(provider, 50*time.Millisecond, 15)

	got, err := svc.BestFix(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Accuracy != 40 {
		t.Errorf("expected best-so-far 40 m, got %v m", got.Accuracy)
	}
	if provider.stops.Load() != 1 {
		t.Errorf("watch not torn down, stops=%d", provider.stops.Load())
	}
}

func TestLocationService_BestFix_PermissionDeniedFailsFast(t *testing.T) {
	provider := &fakeLocationProvider{watchErr: ports.ErrPermissionDenied}
	svc := usecases.NewLocationService(provider, time.Minute, 15)

	start := time.Now()
	_, err := svc.BestFix(context.Background(), "c1")
	if !errors.Is(err, ports.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("permission refusal must not wait out the deadline")
	}
}

func TestLocationService_BestFix_FallsBackToOneShot(t *testing.T) {
	f := fix(200)
	provider := &fakeLocationProvider{
		closeAfter: true, // watch yields nothing
		currentFix: &f,
	}
	svc := usecases.NewLocationService(provider, 50*time.Millisecond, 15)

	got, err := svc.BestFix(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Accuracy != 200 {
		t.Errorf("expected the one-shot fix, got %v m", got.Accuracy)
	}
}

func TestLocationService_BestFix_Unavailable(t *testing.T) {
	provider := &fakeLocationProvider{
		closeAfter: true,
		currentErr: errors.New("no signal"),
	}
	svc := usecases.NewLocationService(provider, 50*time.Millisecond, 15)

	if _, err := svc.BestFix(context.Background(), "c1"); !errors.Is(err, ports.ErrLocationUnavailable) {
		t.Fatalf("expected ErrLocationUnavailable, got %v", err)
	}
}

func TestLocationService_BestFix_SupersedesInflightRequest(t *testing.T) {
	// No fixes and no channel close: the first request can only end by
	// deadline or by being superseded.
	provider := &fakeLocationProvider{currentErr: errors.New("no signal")}
	svc := usecases.NewLocationService(provider, 5*time.Second, 15)

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.BestFix(context.Background(), "c1")
		firstErr <- err
	}()

	// Let the first request register before firing the second.
	time.Sleep(20 * time.Millisecond)

	secondCtx, cancelSecond := context.WithCancel(context.Background())
	defer cancelSecond()
	go func() {
		// The second request for the same client cancels the first.
		_, _ = svc.BestFix(secondCtx, "c1")
	}()

	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("superseded request should observe cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("superseded request did not return")
	}
}

func TestLocationService_Cached(t *testing.T) {
	provider := &fakeLocationProvider{fixes: []domain.LocationFix{fix(10)}}
	svc := usecases.NewLocationService(provider, time.Minute, 15)

	if _, ok := svc.Cached("c1"); ok {
		t.Fatal("no fix cached yet")
	}
	if _, err := svc.BestFix(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	cached, ok := svc.Cached("c1")
	if !ok || cached.Accuracy != 10 {
		t.Errorf("expected cached 10 m fix, got %+v ok=%v", cached, ok)
	}
	if _, ok := svc.Cached("c2"); ok {
		t.Error("cache must be per client")
	}
}
