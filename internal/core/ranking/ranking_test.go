package ranking

import (
	"math"
	"testing"

	"github.com/tjtransit/rutas/internal/core/domain"
)

var observer = domain.GeoPoint{Lat: 32.52, Lon: -117.03}

func route(id string, path ...domain.GeoPoint) domain.Route {
	return domain.Route{ID: id, Path: domain.GeoPath(path)}
}

func TestRouteScore_EmptyPath(t *testing.T) {
	r := route("empty")
	if s := RouteScore(&r, observer); !math.IsInf(s, 1) {
		t.Errorf("expected +Inf for empty path, got %v", s)
	}
}

func TestRouteScore_SinglePoint(t *testing.T) {
	p := domain.GeoPoint{Lat: 32.5332, Lon: -117.0365}
	r := route("single", p)

	// Start, end and nearest point coincide, so the weighted sum collapses
	// to the plain distance.
	want := DistanceKm(p, observer)
	got := RouteScore(&r, observer)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("single-point score = %v, want %v", got, want)
	}
}

func TestRouteScore_WeightedSum(t *testing.T) {
	start := domain.GeoPoint{Lat: 32.5332, Lon: -117.0365}
	mid := domain.GeoPoint{Lat: 32.5200, Lon: -117.0300} // very close to observer
	end := domain.GeoPoint{Lat: 32.5050, Lon: -116.9750}
	r := route("weighted", start, mid, end)

	want := 0.7*DistanceKm(start, observer) +
		0.2*DistanceKm(mid, observer) +
		0.1*DistanceKm(end, observer)
	got := RouteScore(&r, observer)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestRankRoutes_OrdersByScore(t *testing.T) {
	// Route A starts a couple of km from the observer, route B much further
	// out; ranking [B, A] must yield [A, B].
	a := route("A", domain.GeoPoint{Lat: 32.5332, Lon: -117.0365})
	b := route("B", domain.GeoPoint{Lat: 32.5050, Lon: -116.9750})

	if RouteScore(&a, observer) >= RouteScore(&b, observer) {
		t.Fatal("fixture broken: expected score(A) < score(B)")
	}

	ranked := RankRoutes([]domain.Route{b, a}, observer)
	if len(ranked) != 2 || ranked[0].ID != "A" || ranked[1].ID != "B" {
		t.Errorf("expected [A B], got %v %v", ranked[0].ID, ranked[1].ID)
	}
	if ranked[0].Score == nil || ranked[1].Score == nil {
		t.Error("expected scores attached to ranked routes")
	}
}

func TestRankRoutes_Stable(t *testing.T) {
	p := domain.GeoPoint{Lat: 32.53, Lon: -117.04}
	// Identical paths, identical scores; insertion order must survive.
	rs := []domain.Route{route("first", p), route("second", p), route("third", p)}

	ranked := RankRoutes(rs, observer)
	for i, want := range []string{"first", "second", "third"} {
		if ranked[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, ranked[i].ID, want)
		}
	}
}

func TestRankRoutes_EmptyPathSortsLast(t *testing.T) {
	a := route("has-path", domain.GeoPoint{Lat: 32.53, Lon: -117.04})
	empty := route("no-path")

	ranked := RankRoutes([]domain.Route{empty, a}, observer)
	if ranked[0].ID != "has-path" || ranked[1].ID != "no-path" {
		t.Errorf("expected empty-path route last, got %v %v", ranked[0].ID, ranked[1].ID)
	}
}

func TestRankRoutes_DoesNotMutateInput(t *testing.T) {
	a := route("A", domain.GeoPoint{Lat: 32.5332, Lon: -117.0365})
	b := route("B", domain.GeoPoint{Lat: 32.5050, Lon: -116.9750})
	input := []domain.Route{b, a}

	_ = RankRoutes(input, observer)
	if input[0].ID != "B" || input[1].ID != "A" {
		t.Error("input slice was reordered")
	}
	if input[0].Score != nil {
		t.Error("input routes were annotated")
	}
}

func TestDistanceToStartLabel_Meters(t *testing.T) {
	// One meter due north; a meridian degree is ~111.195 km on this sphere.
	start := domain.GeoPoint{Lat: observer.Lat + 0.001/111.19492664455873, Lon: observer.Lon}
	r := route("close", start)

	label, ok := DistanceToStartLabel(&r, observer)
	if !ok {
		t.Fatal("expected a label")
	}
	if label != "1 m al inicio" {
		t.Errorf("got %q, want %q", label, "1 m al inicio")
	}
}

func TestDistanceToStartLabel_Kilometers(t *testing.T) {
	// 2.3 km due north: one degree of latitude is ~111.19 km on this sphere.
	start := domain.GeoPoint{Lat: observer.Lat + 2.3/111.19492664455873, Lon: observer.Lon}
	r := route("far", start)

	label, ok := DistanceToStartLabel(&r, observer)
	if !ok {
		t.Fatal("expected a label")
	}
	if label != "2.3 km al inicio" {
		t.Errorf("got %q, want %q", label, "2.3 km al inicio")
	}
}

func TestDistanceToStartLabel_EmptyPath(t *testing.T) {
	r := route("empty")
	if label, ok := DistanceToStartLabel(&r, observer); ok || label != "" {
		t.Errorf("expected absent label, got %q ok=%v", label, ok)
	}
}
