package model

// UserType distinguishes the two sides of a dispatch conversation.
type UserType string

const (
	UserClient UserType = "client"
	UserDriver UserType = "driver"
)

// DriverInfo carries optional driver registration details.
type DriverInfo struct {
	LicenseNumber string      `json:"licenseNumber,omitempty"`
	VehicleType   VehicleType `json:"vehicleType,omitempty"`
}

// User is the authenticated identity consumed by the dispatch core. Only ID
// and UserType drive behaviour; the rest is display data.
type User struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	UserType   UserType    `json:"userType"`
	DriverInfo *DriverInfo `json:"driverInfo,omitempty"`
}
