package registry

import (
	"testing"
	"time"

	"github.com/respondhq/respond/core/events"
	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/internal/eventbus"
)

// transitionOnlySink implements just metrics.MetricsSink, nothing optional.
type transitionOnlySink struct{ calls int }

func (s *transitionOnlySink) RecordRequestTransition(metrics.RequestTransition) error {
	s.calls++
	return nil
}

// fleetSink counts the optional recorder calls the registry makes.
type fleetSink struct {
	metrics.NopSink
	sizes      []int
	recomputes []time.Duration
}

func (s *fleetSink) RecordFleetSize(size int) error {
	s.sizes = append(s.sizes, size)
	return nil
}

func (s *fleetSink) RecordRecomputeDuration(d time.Duration) error {
	s.recomputes = append(s.recomputes, d)
	return nil
}

func fleet() []model.Vehicle {
	p := func(lat, lng float64) *geo.Point { return &geo.Point{Lat: lat, Lng: lng} }
	return []model.Vehicle{
		{ID: "far", Type: model.VehicleAmbulance, Location: p(51.6, -0.09), Status: model.StatusAvailable},
		{ID: "near", Type: model.VehiclePoliceCar, Location: p(51.506, -0.09), Status: model.StatusAvailable},
		{ID: "mid", Type: model.VehicleFireTruck, Location: p(51.55, -0.09), Status: model.StatusResponding},
	}
}

func TestNearbyWithoutLocationKeepsInputOrder(t *testing.T) {
	r := New(nil, nil)
	r.Replace(fleet())
	got := r.Nearby()
	if len(got) != 3 {
		t.Fatalf("expected 3 vehicles, got %d", len(got))
	}
	for i, id := range []string{"far", "near", "mid"} {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
		if got[i].HasDistance {
			t.Errorf("vehicle %s should have no distance without user location", got[i].ID)
		}
	}
}

func TestNearbySortsByDistance(t *testing.T) {
	r := New(nil, nil)
	r.Replace(fleet())
	r.SetUserLocation(geo.Point{Lat: 51.505, Lng: -0.09})
	got := r.Nearby()
	for i, id := range []string{"near", "mid", "far"} {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Fatalf("distances not ascending: %f before %f", got[i-1].DistanceKm, got[i].DistanceKm)
		}
	}
}

func TestNearbyVehiclesWithoutPositionSortLast(t *testing.T) {
	r := New(nil, nil)
	vs := fleet()
	vs = append(vs, model.Vehicle{ID: "lost", Type: model.VehicleAmbulance})
	r.Replace(vs)
	r.SetUserLocation(geo.Point{Lat: 51.505, Lng: -0.09})
	got := r.Nearby()
	if got[len(got)-1].ID != "lost" {
		t.Fatalf("vehicle without position should sort last, got %s", got[len(got)-1].ID)
	}
	if got[len(got)-1].HasDistance {
		t.Fatal("vehicle without position must not report a distance")
	}
}

func TestClearUserLocationRevertsToInputOrder(t *testing.T) {
	r := New(nil, nil)
	r.Replace(fleet())
	r.SetUserLocation(geo.Point{Lat: 51.505, Lng: -0.09})
	r.ClearUserLocation()
	got := r.Nearby()
	if got[0].ID != "far" {
		t.Fatalf("expected input order after clear, got %s first", got[0].ID)
	}
	if got[0].HasDistance {
		t.Fatal("distances should be cleared with the user location")
	}
}

func TestSetUserLocationMovesDriverVehicle(t *testing.T) {
	r := New(nil, nil)
	r.Replace(fleet())
	r.Add(model.Vehicle{ID: "driver-1", Type: model.VehicleAmbulance, IsDriverVehicle: true, Location: &geo.Point{Lat: 51.5, Lng: -0.09}})
	r.BindDriverVehicle("driver-1")

	loc := geo.Point{Lat: 51.52, Lng: -0.11}
	r.SetUserLocation(loc)

	v, ok := r.Get("driver-1")
	if !ok {
		t.Fatal("driver vehicle missing")
	}
	if v.Location == nil || *v.Location != loc {
		t.Fatalf("driver vehicle did not follow the user, location %+v", v.Location)
	}
}

func TestUpdateOperations(t *testing.T) {
	r := New(nil, nil)
	r.Replace(fleet())

	r.SetStatus("near", model.StatusUnavailable)
	r.SetType("near", model.VehicleFireTruck)
	r.SetETA("near", 9)
	r.UpdatePosition("near", geo.Point{Lat: 52, Lng: -1})

	v, ok := r.Get("near")
	if !ok {
		t.Fatal("vehicle missing")
	}
	if v.Status != model.StatusUnavailable || v.Type != model.VehicleFireTruck || v.ETAMinutes != 9 {
		t.Fatalf("updates not applied: %+v", v)
	}
	if v.Location == nil || v.Location.Lat != 52 {
		t.Fatalf("position not applied: %+v", v.Location)
	}
}

func TestRemove(t *testing.T) {
	r := New(nil, nil)
	r.Replace(fleet())
	if !r.Remove("mid") {
		t.Fatal("expected removal")
	}
	if r.Remove("mid") {
		t.Fatal("second removal should report false")
	}
	if _, ok := r.Get("mid"); ok {
		t.Fatal("vehicle still present after removal")
	}
	if len(r.Vehicles()) != 2 {
		t.Fatalf("expected 2 vehicles, got %d", len(r.Vehicles()))
	}
}

func TestMutationsPublishVehiclesEvent(t *testing.T) {
	bus := eventbus.New[events.Event]()
	defer bus.Close()
	sub := bus.Subscribe()

	r := New(bus, nil)
	r.Replace(fleet())

	ev := <-sub
	ve, ok := ev.(events.VehiclesEvent)
	if !ok {
		t.Fatalf("expected VehiclesEvent, got %T", ev)
	}
	if ve.Count != 3 {
		t.Fatalf("expected count 3, got %d", ve.Count)
	}
}

func TestSetUserLocationPublishesLocationEvent(t *testing.T) {
	bus := eventbus.New[events.Event]()
	defer bus.Close()
	sub := bus.Subscribe()

	r := New(bus, nil)
	loc := geo.Point{Lat: 51.505, Lng: -0.09}
	r.SetUserLocation(loc)

	ev := <-sub
	le, ok := ev.(events.LocationEvent)
	if !ok {
		t.Fatalf("expected LocationEvent, got %T", ev)
	}
	if le.Point != loc {
		t.Fatalf("unexpected point %+v", le.Point)
	}
}

func TestMutationsWorkWithTransitionOnlySink(t *testing.T) {
	sink := &transitionOnlySink{}
	r := New(nil, sink)

	r.Replace(fleet())
	r.Add(model.Vehicle{ID: "extra", Type: model.VehicleAmbulance})
	r.SetStatus("near", model.StatusUnavailable)
	r.Remove("extra")

	if len(r.Vehicles()) != 3 {
		t.Fatalf("expected 3 vehicles, got %d", len(r.Vehicles()))
	}
	if sink.calls != 0 {
		t.Fatalf("registry mutations must not record request transitions, got %d", sink.calls)
	}
}

func TestMutationsRecordFleetSizeAndRecompute(t *testing.T) {
	sink := &fleetSink{}
	r := New(nil, sink)

	r.Replace(fleet())
	r.Remove("mid")

	if len(sink.sizes) != 2 {
		t.Fatalf("expected 2 fleet size records, got %d", len(sink.sizes))
	}
	if sink.sizes[0] != 3 || sink.sizes[1] != 2 {
		t.Fatalf("unexpected fleet sizes %v", sink.sizes)
	}
	if len(sink.recomputes) != 2 {
		t.Fatalf("expected 2 recompute durations, got %d", len(sink.recomputes))
	}
	for _, d := range sink.recomputes {
		if d < 0 {
			t.Fatalf("negative recompute duration %v", d)
		}
	}
}

func TestNearbyReturnsCopies(t *testing.T) {
	r := New(nil, nil)
	r.Replace(fleet())
	got := r.Nearby()
	got[0].ID = "mutated"
	if r.Nearby()[0].ID == "mutated" {
		t.Fatal("Nearby must return a copy")
	}
}
