package position

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/tracking"
)

// SimWatcher is a simulated geolocation capability: it performs a small
// random walk from a starting point, emitting one fix per interval. Used by
// the development fixture and tests.
type SimWatcher struct {
	Interval time.Duration
	StepDeg  float64

	mu    sync.Mutex
	point geo.Point
	rng   *rand.Rand
}

// NewSimWatcher creates a SimWatcher starting at origin.
func NewSimWatcher(origin geo.Point, interval time.Duration, seed int64) *SimWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &SimWatcher{
		Interval: interval,
		StepDeg:  0.0005,
		point:    origin,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Watch emits fixes on a ticker until stopped.
func (w *SimWatcher) Watch(ctx context.Context, onPosition func(tracking.Position), _ func(error)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		// First fix immediately so callers don't wait a full interval.
		if onPosition != nil {
			onPosition(w.step())
		}
		for {
			select {
			case <-ticker.C:
				if onPosition != nil {
					onPosition(w.step())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return cancel, nil
}

// Current returns the walker's present position.
func (w *SimWatcher) Current(_ context.Context) (tracking.Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return tracking.Position{Point: w.point, Time: time.Now()}, nil
}

func (w *SimWatcher) step() tracking.Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.point.Lat += (w.rng.Float64() - 0.5) * w.StepDeg
	w.point.Lng += (w.rng.Float64() - 0.5) * w.StepDeg
	return tracking.Position{Point: w.point, AccuracyM: 5, Time: time.Now()}
}
