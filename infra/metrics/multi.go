package metrics

import (
	"time"

	coremetrics "github.com/respondhq/respond/core/metrics"
)

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRequestTransition forwards the record to all sinks, returning the
// first error encountered.
func (m *MultiSink) RecordRequestTransition(t coremetrics.RequestTransition) error {
	for _, s := range m.Sinks {
		if err := s.RecordRequestTransition(t); err != nil {
			return err
		}
	}
	return nil
}

// RecordMessage forwards message events when supported by the sink.
func (m *MultiSink) RecordMessage(ev coremetrics.MessageEvent) error {
	for _, s := range m.Sinks {
		if mr, ok := s.(coremetrics.MessageRecorder); ok {
			if err := mr.RecordMessage(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordVehicleSnapshot forwards vehicle snapshots when supported by the sink.
func (m *MultiSink) RecordVehicleSnapshot(snaps []coremetrics.VehicleSnapshot) error {
	for _, s := range m.Sinks {
		if vr, ok := s.(coremetrics.VehicleRecorder); ok {
			if err := vr.RecordVehicleSnapshot(snaps); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRecomputeDuration forwards recompute timings when supported by the sink.
func (m *MultiSink) RecordRecomputeDuration(d time.Duration) error {
	for _, s := range m.Sinks {
		if rr, ok := s.(coremetrics.RecomputeRecorder); ok {
			if err := rr.RecordRecomputeDuration(d); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFleetSize forwards fleet size metrics when supported by the sink.
func (m *MultiSink) RecordFleetSize(size int) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(coremetrics.FleetSizeRecorder); ok {
			if err := fr.RecordFleetSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}
