package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/respondhq/respond/core/metrics"
)

// PromSink records dispatch activity in Prometheus metrics.
type PromSink struct {
	transitions *prometheus.CounterVec
	messages    *prometheus.CounterVec
	fleet       prometheus.Gauge
	recompute   prometheus.Histogram
}

// NewPromSink registers metrics on the default Prometheus registerer. The
// Prometheus server should be started separately via StartPromServer.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "request_transitions_total",
		Help: "Total number of emergency request lifecycle transitions",
	}, []string{"request_type", "to_status"})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "request_messages_total",
		Help: "Total number of messages appended to request logs",
	}, []string{"is_driver", "system"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "registry_vehicles_total",
		Help: "Number of vehicles currently known to the registry",
	})
	recompute := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "registry_recompute_seconds",
		Help:    "Latency of nearby-view recomputes",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 6),
	})

	if err := reg.Register(transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(messages); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			messages = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fleet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fleet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(recompute); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			recompute = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{transitions: transitions, messages: messages, fleet: fleet, recompute: recompute}, nil
}

// RecordRequestTransition increments the transition counter.
func (s *PromSink) RecordRequestTransition(t coremetrics.RequestTransition) error {
	s.transitions.WithLabelValues(string(t.Type), string(t.To)).Inc()
	return nil
}

// RecordMessage increments the message counter.
func (s *PromSink) RecordMessage(ev coremetrics.MessageEvent) error {
	s.messages.WithLabelValues(strconv.FormatBool(ev.IsDriver), strconv.FormatBool(ev.System)).Inc()
	return nil
}

// RecordFleetSize sets the gauge to the current vehicle count.
func (s *PromSink) RecordFleetSize(size int) error {
	if s.fleet != nil {
		s.fleet.Set(float64(size))
	}
	return nil
}

// RecordRecomputeDuration observes one nearby-view recompute.
func (s *PromSink) RecordRecomputeDuration(d time.Duration) error {
	if s.recompute != nil {
		s.recompute.Observe(d.Seconds())
	}
	return nil
}
