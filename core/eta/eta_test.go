package eta

import (
	"testing"

	"github.com/respondhq/respond/core/geo"
)

func TestRandomEstimatorRange(t *testing.T) {
	e := NewSeededRandomEstimator(2, 12, 42)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		m := e.EstimateMinutes(geo.Point{}, geo.Point{})
		if m < 2 || m > 12 {
			t.Fatalf("estimate %d out of [2,12]", m)
		}
		seen[m] = true
	}
	if len(seen) < 5 {
		t.Errorf("expected spread across the range, saw %d distinct values", len(seen))
	}
}

func TestRandomEstimatorDegenerateRange(t *testing.T) {
	e := NewSeededRandomEstimator(7, 7, 1)
	if m := e.EstimateMinutes(geo.Point{}, geo.Point{}); m != 7 {
		t.Fatalf("expected 7, got %d", m)
	}
}

func TestSpeedEstimatorFallback(t *testing.T) {
	e := NewSpeedEstimator(60, 8)
	from := geo.Point{Lat: 51.5, Lng: -0.09}
	to := geo.Point{Lat: 51.59, Lng: -0.09} // ~10 km north
	m := e.EstimateMinutes(from, to)
	// 10 km at 60 km/h is 10 minutes.
	if m < 9 || m > 11 {
		t.Fatalf("expected ~10 minutes, got %d", m)
	}
}

func TestSpeedEstimatorUsesObservedMean(t *testing.T) {
	e := NewSpeedEstimator(60, 8)
	e.Observe(20)
	e.Observe(40) // mean 30 km/h
	from := geo.Point{Lat: 51.5, Lng: -0.09}
	to := geo.Point{Lat: 51.59, Lng: -0.09}
	m := e.EstimateMinutes(from, to)
	// 10 km at 30 km/h is 20 minutes.
	if m < 19 || m > 21 {
		t.Fatalf("expected ~20 minutes, got %d", m)
	}
}

func TestSpeedEstimatorWindowEvictsOldSamples(t *testing.T) {
	e := NewSpeedEstimator(60, 2)
	e.Observe(5)
	e.Observe(30)
	e.Observe(30) // the 5 km/h sample falls out of the window
	from := geo.Point{Lat: 51.5, Lng: -0.09}
	to := geo.Point{Lat: 51.59, Lng: -0.09}
	m := e.EstimateMinutes(from, to)
	if m < 19 || m > 21 {
		t.Fatalf("expected ~20 minutes from windowed mean, got %d", m)
	}
}

func TestSpeedEstimatorMinimumOneMinute(t *testing.T) {
	e := NewSpeedEstimator(60, 8)
	p := geo.Point{Lat: 51.5, Lng: -0.09}
	if m := e.EstimateMinutes(p, p); m != 1 {
		t.Fatalf("expected floor of 1 minute, got %d", m)
	}
}

func TestSpeedEstimatorIgnoresNonPositiveSamples(t *testing.T) {
	e := NewSpeedEstimator(60, 8)
	e.Observe(0)
	e.Observe(-10)
	from := geo.Point{Lat: 51.5, Lng: -0.09}
	to := geo.Point{Lat: 51.59, Lng: -0.09}
	if m := e.EstimateMinutes(from, to); m < 9 || m > 11 {
		t.Fatalf("expected fallback estimate, got %d", m)
	}
}

func TestFixed(t *testing.T) {
	if m := Fixed(4).EstimateMinutes(geo.Point{}, geo.Point{}); m != 4 {
		t.Fatalf("expected 4, got %d", m)
	}
}
