// Package session exposes role-scoped facades over the dispatch controllers.
// A client cannot accept requests and a driver cannot file them; the illegal
// operations simply do not exist on the respective type.
package session

import (
	"context"

	"github.com/respondhq/respond/core/dispatch"
	"github.com/respondhq/respond/core/drivermode"
	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/model"
	"github.com/respondhq/respond/core/registry"
	"github.com/respondhq/respond/core/tracking"
)

// Session is the role-independent surface shared by both variants.
type Session interface {
	User() model.User
	SendMessage(requestID, content string) error
	Select(requestID string)
	Teardown()
}

// ClientSession is the request-filing side of a conversation.
type ClientSession struct {
	user  model.User
	store *dispatch.Store
	reg   *registry.Registry
	trk   *tracking.Controller
}

// NewClient creates a ClientSession.
func NewClient(user model.User, store *dispatch.Store, reg *registry.Registry, trk *tracking.Controller) *ClientSession {
	return &ClientSession{user: user, store: store, reg: reg, trk: trk}
}

func (c *ClientSession) User() model.User { return c.user }

// CreateRequest files a new emergency request at the user's current location
// and makes sure tracking is running.
func (c *ClientSession) CreateRequest(ctx context.Context, typ model.RequestType, description string) (model.EmergencyRequest, error) {
	var loc *geo.Point
	if p, ok := c.reg.UserLocation(); ok {
		loc = &p
	}
	req, err := c.store.Create(c.user, loc, typ, description)
	if err != nil {
		return model.EmergencyRequest{}, err
	}
	_ = c.trk.Start(ctx)
	return req, nil
}

// CancelRequest aborts the caller's pending or accepted request.
func (c *ClientSession) CancelRequest(requestID string) error {
	_, err := c.store.Cancel(requestID)
	return err
}

// ActiveRequest returns the caller's non-terminal request, if any.
func (c *ClientSession) ActiveRequest() (model.EmergencyRequest, bool) {
	return c.store.ActiveFor(c.user.ID)
}

func (c *ClientSession) SendMessage(requestID, content string) error {
	return c.store.SendMessage(requestID, dispatch.Sender{ID: c.user.ID, Name: c.user.Name, IsDriver: false}, content)
}

func (c *ClientSession) Select(requestID string) { c.store.Select(requestID) }

// Teardown stops tracking on logout.
func (c *ClientSession) Teardown() { c.trk.Stop() }

// DriverSession is the responding side of a conversation.
type DriverSession struct {
	user  model.User
	store *dispatch.Store
	reg   *registry.Registry
	trk   *tracking.Controller
	mode  *drivermode.Controller
}

// NewDriver creates a DriverSession.
func NewDriver(user model.User, store *dispatch.Store, reg *registry.Registry, trk *tracking.Controller, mode *drivermode.Controller) *DriverSession {
	return &DriverSession{user: user, store: store, reg: reg, trk: trk, mode: mode}
}

func (d *DriverSession) User() model.User { return d.user }

// ToggleDriverMode enters or leaves driver mode.
func (d *DriverSession) ToggleDriverMode(ctx context.Context, enable bool) error {
	return d.mode.Toggle(ctx, enable)
}

// SetVehicleType relabels the driver's vehicle.
func (d *DriverSession) SetVehicleType(t model.VehicleType) { d.mode.SetVehicleType(t) }

// SetStatus changes the driver's availability.
func (d *DriverSession) SetStatus(s model.VehicleStatus) { d.mode.SetStatus(s) }

// Accept takes a pending request: the driver goes responding and the
// vehicle's arrival estimate mirrors the one stamped on the request.
func (d *DriverSession) Accept(requestID string) (model.EmergencyRequest, error) {
	var loc *geo.Point
	if p, ok := d.reg.UserLocation(); ok {
		loc = &p
	}
	req, err := d.store.Accept(requestID, d.mode.VehicleID(), d.user.Name, loc)
	if err != nil {
		return model.EmergencyRequest{}, err
	}
	d.mode.SetStatus(model.StatusResponding)
	d.reg.SetETA(d.mode.VehicleID(), req.ETAMinutes)
	return req, nil
}

// Reject declines a pending request.
func (d *DriverSession) Reject(requestID string) error {
	_, err := d.store.Reject(requestID)
	return err
}

// Complete finishes an accepted request and frees the driver.
func (d *DriverSession) Complete(requestID string) error {
	_, err := d.store.Complete(requestID)
	if err != nil {
		return err
	}
	d.mode.SetStatus(model.StatusAvailable)
	return nil
}

// Cancel aborts a request; if it was assigned to this driver the driver goes
// back to available.
func (d *DriverSession) Cancel(requestID string) error {
	req, err := d.store.Cancel(requestID)
	if err != nil {
		return err
	}
	if req.DriverID != "" && req.DriverID == d.mode.VehicleID() {
		d.mode.SetStatus(model.StatusAvailable)
	}
	return nil
}

func (d *DriverSession) SendMessage(requestID, content string) error {
	return d.store.SendMessage(requestID, dispatch.Sender{ID: d.user.ID, Name: d.user.Name, IsDriver: true}, content)
}

func (d *DriverSession) Select(requestID string) { d.store.Select(requestID) }

// Teardown exits driver mode and stops tracking on logout.
func (d *DriverSession) Teardown() {
	_ = d.mode.Toggle(context.Background(), false)
	d.trk.Stop()
}
