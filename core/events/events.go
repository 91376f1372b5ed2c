// Package events defines the notifications published on the internal bus so
// observers (websocket feed, metrics, tests) can react to store mutations.
package events

import (
	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/model"
)

// Event is implemented by all bus notifications.
type Event interface{ event() }

// RequestEvent signals a lifecycle transition on an emergency request.
type RequestEvent struct {
	RequestID string
	From      model.RequestStatus
	To        model.RequestStatus
}

// MessageEvent signals a message appended to a request log.
type MessageEvent struct {
	RequestID string
	Message   model.Message
}

// VehiclesEvent signals that the vehicle registry changed.
type VehiclesEvent struct {
	Count int
}

// LocationEvent signals a user position update.
type LocationEvent struct {
	Point geo.Point
}

func (RequestEvent) event()  {}
func (MessageEvent) event()  {}
func (VehiclesEvent) event() {}
func (LocationEvent) event() {}
