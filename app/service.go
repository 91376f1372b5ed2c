// Package app assembles the dispatch coordination service from its parts.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/respondhq/respond/api/live"
	"github.com/respondhq/respond/api/requests"
	"github.com/respondhq/respond/api/vehicles"
	"github.com/respondhq/respond/config"
	"github.com/respondhq/respond/core/auth"
	"github.com/respondhq/respond/core/dispatch"
	"github.com/respondhq/respond/core/drivermode"
	"github.com/respondhq/respond/core/eta"
	"github.com/respondhq/respond/core/events"
	"github.com/respondhq/respond/core/geo"
	coremetrics "github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/core/registry"
	"github.com/respondhq/respond/core/tracking"
	"github.com/respondhq/respond/infra/logger"
	"github.com/respondhq/respond/infra/metrics"
	"github.com/respondhq/respond/infra/position"
	"github.com/respondhq/respond/internal/eventbus"
	"github.com/respondhq/respond/simulator"
)

// Service orchestrates the request store, vehicle registry, tracking and
// the HTTP surface.
type Service struct {
	Store    *dispatch.Store
	Registry *registry.Registry
	Tracking *tracking.Controller
	Mode     *drivermode.Controller
	Auth     *auth.Service
	Sim      *simulator.Simulator
	Hub      *live.Hub

	cfg     *config.Config
	bus     *eventbus.Bus[events.Event]
	log     logger.Logger
	watcher tracking.Watcher
	closers []func()
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	bus := eventbus.New[events.Event]()

	sink, closers, err := buildSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	estimator, err := buildEstimator(cfg.ETA)
	if err != nil {
		return nil, err
	}

	store := dispatch.New(bus, sink, estimator, logger.New("dispatch"))
	reg := registry.New(bus, sink)

	watcher, err := buildWatcher(cfg.Position)
	if err != nil {
		return nil, fmt.Errorf("position watcher: %w", err)
	}
	trk := tracking.New(watcher, func(p tracking.Position) {
		reg.SetUserLocation(p.Point)
	}, store.SetError, logger.New("tracking"))

	mode := drivermode.New(reg, trk, store.SetError, logger.New("drivermode"))

	latency := time.Duration(cfg.Auth.LatencyMS) * time.Millisecond
	authSvc := auth.New(latency, store, reg, trk, mode, logger.New("auth"))

	sim := simulator.New(reg, store, cfg.Simulation, logger.New("simulator"))
	if cfg.Simulation.Seed {
		sim.Seed()
	}

	hub := live.NewHub(logger.New("live"))
	hub.OnSelect(store.Select)

	return &Service{
		Store:    store,
		Registry: reg,
		Tracking: trk,
		Mode:     mode,
		Auth:     authSvc,
		Sim:      sim,
		Hub:      hub,
		cfg:      cfg,
		bus:      bus,
		log:      logg,
		watcher:  watcher,
		closers:  closers,
	}, nil
}

// Run starts the background loops and the HTTP server, blocking until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Simulation.Enabled {
		if err := s.Sim.Start(ctx); err != nil {
			return err
		}
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go s.forward(ctx)

	mux := http.NewServeMux()
	mux.Handle("/api/vehicles", vehicles.NewHandler(s.Registry))
	mux.Handle("/api/requests", requests.NewHandler(s.Store))
	mux.Handle("/api/requests/select", requests.NewSelectHandler(s.Store))
	mux.Handle("/ws", s.Hub.Handler())

	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("HTTP API listening on %s", s.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// forward relays domain events to websocket clients.
func (s *Service) forward(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case events.VehiclesEvent:
				s.Hub.Broadcast("vehicles", s.Registry.Nearby())
			case events.RequestEvent, events.MessageEvent:
				s.Hub.Broadcast("requests", s.Store.List())
			case events.LocationEvent:
				s.Hub.Broadcast("location", e.Point)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Sim.Stop()
	s.Tracking.Stop()
	s.Hub.Close()
	if w, ok := s.watcher.(*position.MQTTWatcher); ok && w != nil {
		w.Close()
	}
	for _, fn := range s.closers {
		fn()
	}
	s.bus.Close()
	return nil
}

func buildSink(cfg coremetrics.Config) (coremetrics.MetricsSink, []func(), error) {
	var sinks []coremetrics.MetricsSink
	var closers []func()
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			closers = append(closers, is.Close)
		}
		sinks = append(sinks, sink)
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, closers, nil
	case 1:
		return sinks[0], closers, nil
	default:
		return metrics.NewMultiSink(sinks...), closers, nil
	}
}

func buildEstimator(cfg config.ETAConfig) (eta.Estimator, error) {
	switch cfg.Strategy {
	case "speed":
		return eta.NewSpeedEstimator(cfg.SpeedKmh, 32), nil
	case "random", "":
		return eta.NewRandomEstimator(cfg.MinMinutes, cfg.MaxMinutes), nil
	default:
		return nil, fmt.Errorf("unknown eta strategy: %s", cfg.Strategy)
	}
}

func buildWatcher(cfg config.PositionConfig) (tracking.Watcher, error) {
	switch cfg.Mode {
	case "mqtt":
		return position.NewMQTTWatcher(cfg.MQTT)
	default:
		origin := geo.Point{Lat: 51.505, Lng: -0.09}
		return position.NewSimWatcher(origin, 2*time.Second, time.Now().UnixNano()), nil
	}
}
