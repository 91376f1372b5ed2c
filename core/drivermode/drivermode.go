// Package drivermode switches a user between the client and driver roles and
// owns the driver's synthetic vehicle.
package drivermode

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/respondhq/respond/core/logger"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/core/registry"
	"github.com/respondhq/respond/core/tracking"
)

// ErrNoLocation is returned when driver mode is enabled before a position is
// known. The toggle fails closed.
var ErrNoLocation = errors.New("location required to enter driver mode")

// CallSignFunc produces a display call sign for a synthesized vehicle.
type CallSignFunc func(model.VehicleType) string

// Controller toggles driver mode and propagates type/status changes onto the
// synthetic vehicle.
type Controller struct {
	reg    *registry.Registry
	trk    *tracking.Controller
	report func(string)
	log    logger.Logger

	newID    func() string
	callSign CallSignFunc

	mu          sync.Mutex
	enabled     bool
	vehicleID   string
	vehicleType model.VehicleType
	status      model.VehicleStatus
}

// New creates a Controller defaulting to an ambulance with random call signs.
func New(reg *registry.Registry, trk *tracking.Controller, report func(string), log logger.Logger) *Controller {
	if report == nil {
		report = func(string) {}
	}
	return &Controller{
		reg:         reg,
		trk:         trk,
		report:      report,
		log:         log,
		newID:       uuid.NewString,
		callSign:    RandomCallSign(time.Now().UnixNano()),
		vehicleType: model.VehicleAmbulance,
		status:      model.StatusAvailable,
	}
}

// SetCallSignFunc replaces the call-sign strategy, for deterministic tests.
func (c *Controller) SetCallSignFunc(fn CallSignFunc) {
	c.mu.Lock()
	c.callSign = fn
	c.mu.Unlock()
}

// Toggle enables or disables driver mode.
//
// Enabling with an existing synthetic vehicle only flips the flag. Enabling
// without a known location fails closed. Otherwise a vehicle is synthesized
// at the user position, bound in the registry and tracking is started.
// Disabling removes the synthetic vehicle.
func (c *Controller) Toggle(ctx context.Context, enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !enable {
		if c.vehicleID != "" {
			c.reg.Remove(c.vehicleID)
			c.reg.BindDriverVehicle("")
			c.vehicleID = ""
		}
		c.enabled = false
		return nil
	}

	if c.vehicleID != "" {
		c.enabled = true
		return nil
	}

	loc, ok := c.reg.UserLocation()
	if !ok {
		c.enabled = false
		c.report("Please allow location access to enter driver mode")
		return ErrNoLocation
	}

	v := model.Vehicle{
		ID:              "driver-" + c.newID(),
		Type:            c.vehicleType,
		CallSign:        c.callSign(c.vehicleType),
		Location:        &loc,
		Status:          model.StatusAvailable,
		ETAMinutes:      0,
		IsDriverVehicle: true,
	}
	c.reg.Add(v)
	c.reg.BindDriverVehicle(v.ID)
	c.vehicleID = v.ID
	c.status = model.StatusAvailable
	c.enabled = true
	if c.log != nil {
		c.log.Infof("driver mode enabled, vehicle %s (%s)", v.ID, v.CallSign)
	}
	if err := c.trk.Start(ctx); err != nil && c.log != nil {
		c.log.Warnf("auto-start tracking: %v", err)
	}
	return nil
}

// SetVehicleType relabels the synthetic vehicle.
func (c *Controller) SetVehicleType(t model.VehicleType) {
	c.mu.Lock()
	c.vehicleType = t
	id := c.vehicleID
	c.mu.Unlock()
	if id != "" {
		c.reg.SetType(id, t)
	}
}

// SetStatus propagates availability onto the synthetic vehicle.
func (c *Controller) SetStatus(s model.VehicleStatus) {
	c.mu.Lock()
	c.status = s
	id := c.vehicleID
	c.mu.Unlock()
	if id != "" {
		c.reg.SetStatus(id, s)
	}
}

// Enabled reports whether driver mode is on.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// VehicleID returns the synthetic vehicle id, empty when none exists.
func (c *Controller) VehicleID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vehicleID
}

// Status returns the driver's availability.
func (c *Controller) Status() model.VehicleStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// VehicleType returns the currently selected vehicle type.
func (c *Controller) VehicleType() model.VehicleType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vehicleType
}

// RandomCallSign builds the default call-sign strategy: a three-letter type
// prefix and a random three-digit suffix, e.g. AMB-427.
func RandomCallSign(seed int64) CallSignFunc {
	rng := rand.New(rand.NewSource(seed))
	var mu sync.Mutex
	return func(t model.VehicleType) string {
		mu.Lock()
		n := rng.Intn(900) + 100
		mu.Unlock()
		return fmt.Sprintf("%s-%d", callSignPrefix(t), n)
	}
}

func callSignPrefix(t model.VehicleType) string {
	s := strings.ReplaceAll(string(t), " ", "")
	if len(s) > 3 {
		s = s[:3]
	}
	return strings.ToUpper(s)
}
