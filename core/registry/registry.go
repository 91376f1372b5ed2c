// Package registry maintains the in-memory vehicle list and its
// proximity-sorted view relative to the user's last known location.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/respondhq/respond/core/events"
	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/metrics"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/internal/eventbus"
)

// Registry owns the vehicle list. All mutations recompute the nearby view
// before returning, so readers always observe a consistent sort.
type Registry struct {
	mu              sync.RWMutex
	vehicles        []model.Vehicle
	nearby          []model.Vehicle
	userLoc         *geo.Point
	driverVehicleID string
	lastRecompute   time.Duration

	bus  *eventbus.Bus[events.Event]
	sink metrics.MetricsSink
}

// New creates an empty Registry. bus and sink may be nil.
func New(bus *eventbus.Bus[events.Event], sink metrics.MetricsSink) *Registry {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Registry{bus: bus, sink: sink}
}

// SetUserLocation stores the user position, moves the bound driver vehicle to
// it and recomputes the nearby view.
func (r *Registry) SetUserLocation(p geo.Point) {
	r.mu.Lock()
	loc := p
	r.userLoc = &loc
	if r.driverVehicleID != "" {
		for i := range r.vehicles {
			if r.vehicles[i].ID == r.driverVehicleID {
				v := loc
				r.vehicles[i].Location = &v
				break
			}
		}
	}
	r.recompute()
	r.mu.Unlock()
	if r.bus != nil {
		r.bus.Publish(events.LocationEvent{Point: p})
	}
}

// ClearUserLocation forgets the user position; the nearby view reverts to
// input order.
func (r *Registry) ClearUserLocation() {
	r.mu.Lock()
	r.userLoc = nil
	r.recompute()
	r.mu.Unlock()
}

// UserLocation returns the last known user position.
func (r *Registry) UserLocation() (geo.Point, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.userLoc == nil {
		return geo.Point{}, false
	}
	return *r.userLoc, true
}

// BindDriverVehicle marks the vehicle that follows the user's own position.
func (r *Registry) BindDriverVehicle(id string) {
	r.mu.Lock()
	r.driverVehicleID = id
	r.mu.Unlock()
}

// DriverVehicleID returns the bound driver vehicle id, if any.
func (r *Registry) DriverVehicleID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.driverVehicleID
}

// Replace swaps the vehicle list wholesale.
func (r *Registry) Replace(vs []model.Vehicle) {
	r.mu.Lock()
	r.vehicles = append([]model.Vehicle(nil), vs...)
	r.recompute()
	n := len(r.vehicles)
	r.mu.Unlock()
	r.changed(n)
}

// Add appends a vehicle.
func (r *Registry) Add(v model.Vehicle) {
	r.mu.Lock()
	r.vehicles = append(r.vehicles, v)
	r.recompute()
	n := len(r.vehicles)
	r.mu.Unlock()
	r.changed(n)
}

// Remove deletes the vehicle with the given id. It reports whether a vehicle
// was removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	removed := false
	for i := range r.vehicles {
		if r.vehicles[i].ID == id {
			r.vehicles = append(r.vehicles[:i], r.vehicles[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		r.recompute()
	}
	n := len(r.vehicles)
	r.mu.Unlock()
	if removed {
		r.changed(n)
	}
	return removed
}

// Get returns a copy of the vehicle with the given id.
func (r *Registry) Get(id string) (model.Vehicle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return model.Vehicle{}, false
}

// UpdatePosition moves one vehicle.
func (r *Registry) UpdatePosition(id string, p geo.Point) {
	r.update(id, func(v *model.Vehicle) {
		loc := p
		v.Location = &loc
	})
}

// SetType relabels one vehicle.
func (r *Registry) SetType(id string, t model.VehicleType) {
	r.update(id, func(v *model.Vehicle) { v.Type = t })
}

// SetStatus changes one vehicle's availability.
func (r *Registry) SetStatus(id string, s model.VehicleStatus) {
	r.update(id, func(v *model.Vehicle) { v.Status = s })
}

// SetETA stamps an arrival estimate on one vehicle.
func (r *Registry) SetETA(id string, minutes int) {
	r.update(id, func(v *model.Vehicle) { v.ETAMinutes = minutes })
}

// Vehicles returns a copy of the raw vehicle list.
func (r *Registry) Vehicles() []model.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Vehicle(nil), r.vehicles...)
}

// Nearby returns a copy of the proximity-sorted view. Without a user location
// it equals the raw list in input order.
func (r *Registry) Nearby() []model.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Vehicle(nil), r.nearby...)
}

func (r *Registry) update(id string, fn func(*model.Vehicle)) {
	r.mu.Lock()
	found := false
	for i := range r.vehicles {
		if r.vehicles[i].ID == id {
			fn(&r.vehicles[i])
			found = true
			break
		}
	}
	if found {
		r.recompute()
	}
	n := len(r.vehicles)
	r.mu.Unlock()
	if found {
		r.changed(n)
	}
}

// recompute rebuilds the nearby view. Vehicles without a position sort last;
// ties keep input order. Callers must hold the write lock.
func (r *Registry) recompute() {
	start := time.Now()
	defer func() { r.lastRecompute = time.Since(start) }()
	if r.userLoc == nil {
		view := append([]model.Vehicle(nil), r.vehicles...)
		for i := range view {
			view[i].HasDistance = false
			view[i].DistanceKm = 0
		}
		r.nearby = view
		return
	}
	view := append([]model.Vehicle(nil), r.vehicles...)
	for i := range view {
		if view[i].Location != nil {
			view[i].DistanceKm = geo.DistanceKm(*r.userLoc, *view[i].Location)
			view[i].HasDistance = true
		} else {
			view[i].HasDistance = false
			view[i].DistanceKm = 0
		}
	}
	sort.SliceStable(view, func(i, j int) bool {
		if view[i].HasDistance != view[j].HasDistance {
			return view[i].HasDistance
		}
		if !view[i].HasDistance {
			return false
		}
		return view[i].DistanceKm < view[j].DistanceKm
	})
	r.nearby = view
}

func (r *Registry) changed(count int) {
	if r.bus != nil {
		r.bus.Publish(events.VehiclesEvent{Count: count})
	}
	if fr, ok := r.sink.(metrics.FleetSizeRecorder); ok {
		_ = fr.RecordFleetSize(count)
	}
	if rr, ok := r.sink.(metrics.RecomputeRecorder); ok {
		r.mu.RLock()
		d := r.lastRecompute
		r.mu.RUnlock()
		_ = rr.RecordRecomputeDuration(d)
	}
	if vr, ok := r.sink.(metrics.VehicleRecorder); ok {
		now := time.Now()
		snaps := make([]metrics.VehicleSnapshot, 0, count)
		for _, v := range r.Vehicles() {
			snaps = append(snaps, metrics.VehicleSnapshot{Vehicle: v, Time: now})
		}
		_ = vr.RecordVehicleSnapshot(snaps)
	}
}
