package model

import "github.com/respondhq/respond/core/geo"

// VehicleType identifies the kind of emergency vehicle.
type VehicleType string

const (
	VehicleAmbulance VehicleType = "Ambulance"
	VehicleFireTruck VehicleType = "Fire Truck"
	VehiclePoliceCar VehicleType = "Police Car"
)

// VehicleStatus reflects whether a vehicle can take new work.
type VehicleStatus string

const (
	StatusAvailable   VehicleStatus = "available"
	StatusResponding  VehicleStatus = "responding"
	StatusUnavailable VehicleStatus = "unavailable"
)

// Vehicle represents an emergency vehicle visible on the dispatch map.
// DistanceKm is derived from the user's location and only meaningful when
// HasDistance is set.
type Vehicle struct {
	ID              string        `json:"id"`
	Type            VehicleType   `json:"type"`
	CallSign        string        `json:"callSign"`
	Location        *geo.Point    `json:"location,omitempty"`
	Status          VehicleStatus `json:"status"`
	ETAMinutes      int           `json:"estimatedArrivalTime"`
	DistanceKm      float64       `json:"distance,omitempty"`
	HasDistance     bool          `json:"-"`
	IsDriverVehicle bool          `json:"isDriverVehicle,omitempty"`
}
