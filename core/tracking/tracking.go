// Package tracking wraps a continuous position watch and feeds updates into
// the rest of the dispatch core.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/logger"
)

// ErrNotSupported is returned when no position capability is available.
var ErrNotSupported = errors.New("geolocation is not supported on this device")

// Position is a single fix from the device capability.
type Position struct {
	Point     geo.Point
	AccuracyM float64
	Time      time.Time
}

// Watcher is the device geolocation capability: a continuous position
// subscription with success/failure callbacks and a cancel handle, plus a
// one-shot read.
type Watcher interface {
	// Watch starts delivering fixes to onPosition and failures to onError.
	// The returned stop func cancels the subscription.
	Watch(ctx context.Context, onPosition func(Position), onError func(error)) (stop func(), err error)
	// Current reads a single fix.
	Current(ctx context.Context) (Position, error)
}

// Controller manages the watch lifecycle. At most one subscription exists at
// a time; Start while subscribed is a no-op.
type Controller struct {
	watcher    Watcher
	onPosition func(Position)
	report     func(string)
	log        logger.Logger

	mu     sync.Mutex
	stop   func()
	active bool
}

// New creates a Controller. onPosition receives every successful fix; report
// receives human-readable failures for the UI error channel (empty string
// clears it). Both may be nil.
func New(w Watcher, onPosition func(Position), report func(string), log logger.Logger) *Controller {
	if report == nil {
		report = func(string) {}
	}
	return &Controller{watcher: w, onPosition: onPosition, report: report, log: log}
}

// Start subscribes to continuous position updates. A missing capability is a
// hard error and the controller stays idle. Mid-stream failures clear the
// active flag without cancelling the subscription; they are not retried.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stop != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if c.watcher == nil {
		c.report(ErrNotSupported.Error())
		return ErrNotSupported
	}

	stop, err := c.watcher.Watch(ctx, c.handlePosition, c.handleError)
	if err != nil {
		msg := fmt.Sprintf("failed to start location tracking: %v", err)
		c.report(msg)
		if c.log != nil {
			c.log.Errorf("watch: %v", err)
		}
		return err
	}
	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()
	return nil
}

// Stop cancels the subscription if one exists.
func (c *Controller) Stop() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.active = false
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Active reports whether fixes are currently being received.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Subscribed reports whether a watch is registered.
func (c *Controller) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// Current reads a single fix from the capability.
func (c *Controller) Current(ctx context.Context) (Position, error) {
	if c.watcher == nil {
		return Position{}, ErrNotSupported
	}
	return c.watcher.Current(ctx)
}

func (c *Controller) handlePosition(p Position) {
	c.mu.Lock()
	c.active = true
	c.mu.Unlock()
	c.report("")
	if c.onPosition != nil {
		c.onPosition(p)
	}
}

func (c *Controller) handleError(err error) {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	c.report(fmt.Sprintf("Location tracking error: %v", err))
	if c.log != nil {
		c.log.Warnf("position watch error: %v", err)
	}
}
