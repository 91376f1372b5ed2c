package drivermode

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/core/registry"
	"github.com/respondhq/respond/core/tracking"
)

type stubWatcher struct{ watches int }

func (s *stubWatcher) Watch(context.Context, func(tracking.Position), func(error)) (func(), error) {
	s.watches++
	return func() {}, nil
}

func (s *stubWatcher) Current(context.Context) (tracking.Position, error) {
	return tracking.Position{}, nil
}

func newTestController(t *testing.T) (*Controller, *registry.Registry, *[]string) {
	t.Helper()
	reg := registry.New(nil, nil)
	reports := &[]string{}
	trk := tracking.New(&stubWatcher{}, nil, nil, nil)
	c := New(reg, trk, func(m string) { *reports = append(*reports, m) }, nil)
	c.SetCallSignFunc(func(vt model.VehicleType) string { return "AMB-111" })
	return c, reg, reports
}

func TestToggleWithoutLocationFailsClosed(t *testing.T) {
	c, _, reports := newTestController(t)
	err := c.Toggle(context.Background(), true)
	if !errors.Is(err, ErrNoLocation) {
		t.Fatalf("expected ErrNoLocation, got %v", err)
	}
	if c.Enabled() {
		t.Fatal("driver mode must stay off")
	}
	if len(*reports) == 0 || (*reports)[0] != "Please allow location access to enter driver mode" {
		t.Fatalf("reports = %v", *reports)
	}
}

func TestToggleSynthesizesVehicle(t *testing.T) {
	c, reg, _ := newTestController(t)
	loc := geo.Point{Lat: 51.505, Lng: -0.09}
	reg.SetUserLocation(loc)

	if err := c.Toggle(context.Background(), true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !c.Enabled() {
		t.Fatal("driver mode should be on")
	}
	id := c.VehicleID()
	if !strings.HasPrefix(id, "driver-") {
		t.Fatalf("vehicle id = %q", id)
	}
	v, ok := reg.Get(id)
	if !ok {
		t.Fatal("vehicle missing from registry")
	}
	if v.CallSign != "AMB-111" || !v.IsDriverVehicle || v.Status != model.StatusAvailable {
		t.Fatalf("vehicle wrong: %+v", v)
	}
	if v.Location == nil || *v.Location != loc {
		t.Fatalf("vehicle not at user location: %+v", v.Location)
	}
	if reg.DriverVehicleID() != id {
		t.Fatal("vehicle not bound in registry")
	}
}

func TestToggleOffRemovesVehicle(t *testing.T) {
	c, reg, _ := newTestController(t)
	reg.SetUserLocation(geo.Point{Lat: 51.505, Lng: -0.09})
	if err := c.Toggle(context.Background(), true); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	id := c.VehicleID()

	if err := c.Toggle(context.Background(), false); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if c.Enabled() || c.VehicleID() != "" {
		t.Fatal("driver mode state not cleared")
	}
	if _, ok := reg.Get(id); ok {
		t.Fatal("vehicle still in registry")
	}
	if reg.DriverVehicleID() != "" {
		t.Fatal("binding not cleared")
	}
}

func TestToggleOffWhileOffIsNoOp(t *testing.T) {
	c, _, _ := newTestController(t)
	if err := c.Toggle(context.Background(), false); err != nil {
		t.Fatalf("toggle off while off: %v", err)
	}
}

func TestSetVehicleTypePropagates(t *testing.T) {
	c, reg, _ := newTestController(t)
	reg.SetUserLocation(geo.Point{Lat: 51.505, Lng: -0.09})
	if err := c.Toggle(context.Background(), true); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	c.SetVehicleType(model.VehicleFireTruck)
	v, _ := reg.Get(c.VehicleID())
	if v.Type != model.VehicleFireTruck {
		t.Fatalf("type not propagated: %s", v.Type)
	}

	c.SetStatus(model.StatusResponding)
	v, _ = reg.Get(c.VehicleID())
	if v.Status != model.StatusResponding {
		t.Fatalf("status not propagated: %s", v.Status)
	}
	if c.Status() != model.StatusResponding {
		t.Fatalf("controller status = %s", c.Status())
	}
}

func TestSetVehicleTypeBeforeToggleIsRemembered(t *testing.T) {
	c, reg, _ := newTestController(t)
	c.SetVehicleType(model.VehiclePoliceCar)
	reg.SetUserLocation(geo.Point{Lat: 51.505, Lng: -0.09})
	if err := c.Toggle(context.Background(), true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	v, _ := reg.Get(c.VehicleID())
	if v.Type != model.VehiclePoliceCar {
		t.Fatalf("type = %s", v.Type)
	}
}

func TestRandomCallSignFormat(t *testing.T) {
	fn := RandomCallSign(42)
	re := regexp.MustCompile(`^[A-Z]{3}-\d{3}$`)
	cases := map[model.VehicleType]string{
		model.VehicleAmbulance: "AMB",
		model.VehicleFireTruck: "FIR",
		model.VehiclePoliceCar: "POL",
	}
	for vt, prefix := range cases {
		cs := fn(vt)
		if !re.MatchString(cs) {
			t.Errorf("call sign %q does not match pattern", cs)
		}
		if !strings.HasPrefix(cs, prefix+"-") {
			t.Errorf("call sign %q should start with %s-", cs, prefix)
		}
	}
}
