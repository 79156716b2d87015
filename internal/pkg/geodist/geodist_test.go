package geodist

import (
	"math"
	"testing"
)

func TestDistanceKm_Identity(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{32.5149, -117.0382},
		{-33.45, -70.66},
		{89.9, 179.9},
	}
	for _, p := range points {
		if d := DistanceKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("DistanceKm(p, p) = %v for %v, want 0", d, p)
		}
	}
}

func TestDistanceKm_Commutative(t *testing.T) {
	d1 := DistanceKm(32.5149, -117.0382, 32.5332, -117.0365)
	d2 := DistanceKm(32.5332, -117.0365, 32.5149, -117.0382)
	if math.Abs(d1-d2) > 1e-12 {
		t.Errorf("not commutative: %v vs %v", d1, d2)
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Tijuana centro to Otay, roughly 8 km apart.
	d := DistanceKm(32.5149, -117.0382, 32.5350, -116.9650)
	if d < 6 || d > 9 {
		t.Errorf("expected ~7 km, got %v", d)
	}
}
