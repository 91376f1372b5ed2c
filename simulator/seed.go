package simulator

import (
	"time"

	"github.com/respondhq/respond/core/geo"
	"github.com/respondhq/respond/core/model"
)

func point(lat, lng float64) *geo.Point {
	return &geo.Point{Lat: lat, Lng: lng}
}

// SeedVehicles returns the fixture fleet around central London.
func SeedVehicles() []model.Vehicle {
	return []model.Vehicle{
		{ID: "1", Type: model.VehicleAmbulance, CallSign: "AMB-101", Location: point(51.505, -0.09), Status: model.StatusAvailable, ETAMinutes: 5},
		{ID: "2", Type: model.VehicleFireTruck, CallSign: "FT-202", Location: point(51.51, -0.1), Status: model.StatusResponding, ETAMinutes: 8},
		{ID: "3", Type: model.VehiclePoliceCar, CallSign: "PC-303", Location: point(51.5, -0.08), Status: model.StatusAvailable, ETAMinutes: 3},
		{ID: "4", Type: model.VehicleAmbulance, CallSign: "AMB-104", Location: point(51.498, -0.095), Status: model.StatusAvailable, ETAMinutes: 6},
		{ID: "5", Type: model.VehicleFireTruck, CallSign: "FT-205", Location: point(51.515, -0.105), Status: model.StatusResponding, ETAMinutes: 10},
	}
}

// SeedRequests returns two sample pending requests relative to now.
func SeedRequests(now time.Time) []model.EmergencyRequest {
	return []model.EmergencyRequest{
		{
			ID:          "request-1",
			UserID:      "user-1",
			UserName:    "John Doe",
			Location:    geo.Point{Lat: 51.503, Lng: -0.087},
			Status:      model.RequestPending,
			Type:        model.RequestMedical,
			Description: "Person with chest pain needs immediate assistance",
			CreatedAt:   now.Add(-5 * time.Minute),
			Messages: []model.Message{
				{
					ID:         "msg-1",
					SenderID:   "user-1",
					SenderName: "John Doe",
					Content:    "Please hurry, the pain is getting worse",
					Timestamp:  now.Add(-280 * time.Second),
					IsDriver:   false,
				},
			},
		},
		{
			ID:          "request-2",
			UserID:      "user-2",
			UserName:    "Jane Smith",
			Location:    geo.Point{Lat: 51.508, Lng: -0.095},
			Status:      model.RequestPending,
			Type:        model.RequestFire,
			Description: "Small kitchen fire in apartment building",
			CreatedAt:   now.Add(-3 * time.Minute),
			Messages:    []model.Message{},
		},
	}
}
