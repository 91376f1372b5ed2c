package model

import (
	"time"

	"github.com/respondhq/respond/core/geo"
)

// RequestType identifies the kind of emergency help being requested.
type RequestType string

const (
	RequestMedical RequestType = "Medical Emergency"
	RequestFire    RequestType = "Fire Emergency"
	RequestPolice  RequestType = "Police Emergency"
	RequestOther   RequestType = "Other Emergency"
)

// RequestStatus is the lifecycle state of an emergency request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestRejected, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// EmergencyRequest is a client's call for help and its conversation log.
type EmergencyRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	UserName    string        `json:"userName"`
	Location    geo.Point     `json:"location"`
	Status      RequestStatus `json:"status"`
	Type        RequestType   `json:"type"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	DriverID    string        `json:"driverId,omitempty"`
	DriverName  string        `json:"driverName,omitempty"`
	ETAMinutes  int           `json:"estimatedArrivalTime,omitempty"`
	Messages    []Message     `json:"messages"`
}

// SystemSenderID marks messages inserted by lifecycle transitions rather than
// either party.
const SystemSenderID = "system"

// Message is one entry in a request's append-only conversation log.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsDriver   bool      `json:"isDriver"`
}
