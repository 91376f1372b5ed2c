// Package simulator stands in for a real vehicle data source: it seeds the
// registry and request store with fixture data and moves the seeded vehicles
// with a small random jitter on a fixed interval.
package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/respondhq/respond/core/dispatch"
	"github.com/respondhq/respond/core/logger"
	"github.com/respondhq/respond/core/registry"
)

// Config holds parameters for the simulator.
type Config struct {
	Enabled         bool    `json:"enabled"`
	Seed            bool    `json:"seed"`
	IntervalSeconds int     `json:"interval_seconds"`
	JitterDegrees   float64 `json:"jitter_degrees"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 5
	}
	if c.JitterDegrees <= 0 {
		c.JitterDegrees = 0.002
	}
}

// Simulator owns the vehicle jitter loop. Unlike a fire-and-forget timer it
// has an explicit lifecycle: Start runs until Stop or context cancellation.
type Simulator struct {
	reg      *registry.Registry
	store    *dispatch.Store
	interval time.Duration
	jitter   float64
	log      logger.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	cancel context.CancelFunc
}

// New creates a Simulator.
func New(reg *registry.Registry, store *dispatch.Store, cfg Config, log logger.Logger) *Simulator {
	cfg.SetDefaults()
	return &Simulator{
		reg:      reg,
		store:    store,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		jitter:   cfg.JitterDegrees,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetSeed makes the jitter reproducible, for tests.
func (s *Simulator) SetSeed(seed int64) {
	s.mu.Lock()
	s.rng = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
}

// SetInterval overrides the tick interval, for tests.
func (s *Simulator) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

// Seed installs the fixture vehicles and sample requests.
func (s *Simulator) Seed() {
	s.reg.Replace(SeedVehicles())
	s.store.Seed(SeedRequests(time.Now()))
	if s.log != nil {
		s.log.Infof("seeded %d vehicles and %d sample requests", len(SeedVehicles()), len(SeedRequests(time.Now())))
	}
}

// Start launches the jitter loop. Starting twice is an error.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("simulator already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	interval := s.interval
	go s.run(ctx, interval)
	return nil
}

// Stop halts the jitter loop. It is idempotent.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Running reports whether the loop is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Simulator) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-ctx.Done():
			return
		}
	}
}

// Tick applies one round of jitter to every non-driver vehicle. The driver's
// vehicle follows real position updates and is left alone.
func (s *Simulator) Tick() {
	driverID := s.reg.DriverVehicleID()
	vehicles := s.reg.Vehicles()
	s.mu.Lock()
	for i := range vehicles {
		v := &vehicles[i]
		if v.IsDriverVehicle || v.ID == driverID || v.Location == nil {
			continue
		}
		loc := *v.Location
		loc.Lat += (s.rng.Float64() - 0.5) * s.jitter
		loc.Lng += (s.rng.Float64() - 0.5) * s.jitter
		v.Location = &loc
	}
	s.mu.Unlock()
	s.reg.Replace(vehicles)
}
