package metrics

import (
	"time"

	"github.com/respondhq/respond/core/model"
)

// RequestTransition records one lifecycle transition of an emergency request.
type RequestTransition struct {
	RequestID string
	Type      model.RequestType
	From      model.RequestStatus
	To        model.RequestStatus
	DriverID  string
	Time      time.Time
}

// MetricsSink records request transitions for observability purposes.
type MetricsSink interface {
	RecordRequestTransition(t RequestTransition) error
}

// MessageEvent captures a message appended to a request log.
type MessageEvent struct {
	RequestID string
	IsDriver  bool
	System    bool
	Time      time.Time
}

// MessageRecorder is implemented by sinks able to record message traffic.
type MessageRecorder interface {
	RecordMessage(ev MessageEvent) error
}

// VehicleSnapshot is a point-in-time view of a vehicle.
type VehicleSnapshot struct {
	Vehicle model.Vehicle
	Time    time.Time
}

// VehicleRecorder records vehicle snapshots.
type VehicleRecorder interface {
	RecordVehicleSnapshot(snaps []VehicleSnapshot) error
}

// FleetSizeRecorder records the number of vehicles known to the registry.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// RecomputeRecorder records how long a nearby-view recompute took.
type RecomputeRecorder interface {
	RecordRecomputeDuration(d time.Duration) error
}

// NopSink implements all recorder interfaces with no-op methods.
type NopSink struct{}

func (NopSink) RecordRequestTransition(RequestTransition) error { return nil }
func (NopSink) RecordMessage(MessageEvent) error                { return nil }
func (NopSink) RecordVehicleSnapshot([]VehicleSnapshot) error   { return nil }
func (NopSink) RecordFleetSize(int) error                       { return nil }
func (NopSink) RecordRecomputeDuration(time.Duration) error     { return nil }
