package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/infra/logger"
)

// InfluxSink writes dispatch events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRequestTransition writes the transition as a line protocol event.
func (s *InfluxSink) RecordRequestTransition(t coremetrics.RequestTransition) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("request_transition").
		AddTag("request_id", t.RequestID).
		AddTag("request_type", string(t.Type)).
		AddTag("to_status", string(t.To)).
		AddTag("component", "dispatch_store").
		AddField("from_status", string(t.From)).
		AddField("driver_id", t.DriverID).
		SetTime(t.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordMessage writes one message event.
func (s *InfluxSink) RecordMessage(ev coremetrics.MessageEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("request_message").
		AddTag("request_id", ev.RequestID).
		AddTag("component", "dispatch_store").
		AddField("is_driver", ev.IsDriver).
		AddField("system", ev.System).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVehicleSnapshot writes a point per vehicle.
func (s *InfluxSink) RecordVehicleSnapshot(snaps []coremetrics.VehicleSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, snap := range snaps {
		v := snap.Vehicle
		p := write.NewPointWithMeasurement("vehicle_state").
			AddTag("vehicle_id", v.ID).
			AddTag("vehicle_type", string(v.Type)).
			AddTag("status", string(v.Status)).
			AddTag("component", "registry").
			AddField("eta_minutes", v.ETAMinutes).
			AddField("is_driver_vehicle", v.IsDriverVehicle)
		if v.Location != nil {
			p = p.AddField("lat", round6(v.Location.Lat)).
				AddField("lng", round6(v.Location.Lng))
		}
		p = p.SetTime(snap.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetSize writes the current vehicle count.
func (s *InfluxSink) RecordFleetSize(size int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_size").
		AddTag("component", "registry").
		AddField("vehicles", size).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
