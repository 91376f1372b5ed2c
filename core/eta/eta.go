// Package eta provides arrival-time estimation strategies for dispatch.
//
// The estimates are intentionally coarse: there is no routing engine behind
// them. Strategies are injectable so tests can swap in deterministic doubles.
package eta

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/respondhq/respond/core/geo"
)

// Estimator computes an arrival estimate in whole minutes for a journey
// between two points.
type Estimator interface {
	EstimateMinutes(from, to geo.Point) int
}

// RandomEstimator returns a uniform random estimate in [Min, Max] minutes,
// ignoring the journey itself.
type RandomEstimator struct {
	Min int
	Max int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomEstimator creates an estimator over [min, max] minutes seeded from
// the current time.
func NewRandomEstimator(min, max int) *RandomEstimator {
	return &RandomEstimator{Min: min, Max: max, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRandomEstimator creates a reproducible estimator for tests.
func NewSeededRandomEstimator(min, max int, seed int64) *RandomEstimator {
	return &RandomEstimator{Min: min, Max: max, rng: rand.New(rand.NewSource(seed))}
}

func (e *RandomEstimator) EstimateMinutes(_, _ geo.Point) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Max <= e.Min {
		return e.Min
	}
	return e.Min + e.rng.Intn(e.Max-e.Min+1)
}

// SpeedEstimator derives an estimate from the great-circle distance and the
// mean of recently observed vehicle speeds. With no observations it falls
// back to FallbackKmh.
type SpeedEstimator struct {
	FallbackKmh float64
	WindowSize  int

	mu      sync.Mutex
	samples []float64
}

// NewSpeedEstimator creates a SpeedEstimator with the given fallback speed
// and sample window.
func NewSpeedEstimator(fallbackKmh float64, window int) *SpeedEstimator {
	if window <= 0 {
		window = 32
	}
	return &SpeedEstimator{FallbackKmh: fallbackKmh, WindowSize: window}
}

// Observe records a speed sample in km/h. Non-positive samples are dropped.
func (e *SpeedEstimator) Observe(kmh float64) {
	if kmh <= 0 {
		return
	}
	e.mu.Lock()
	e.samples = append(e.samples, kmh)
	if len(e.samples) > e.WindowSize {
		e.samples = e.samples[len(e.samples)-e.WindowSize:]
	}
	e.mu.Unlock()
}

func (e *SpeedEstimator) EstimateMinutes(from, to geo.Point) int {
	e.mu.Lock()
	speed := e.FallbackKmh
	if len(e.samples) > 0 {
		speed = stat.Mean(e.samples, nil)
	}
	e.mu.Unlock()
	if speed <= 0 {
		speed = 30
	}
	minutes := int(math.Ceil(geo.DistanceKm(from, to) / speed * 60))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Fixed is a deterministic estimator for tests.
type Fixed int

func (f Fixed) EstimateMinutes(_, _ geo.Point) int { return int(f) }
