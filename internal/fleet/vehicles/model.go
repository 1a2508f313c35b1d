package vehicles

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive      = "ACTIVE"
	StatusMaintenance = "MAINTENANCE"
	StatusSold        = "SOLD"
)

type Vehicle struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	VIN            string     `json:"vin"`
	PlateNumber    string     `json:"plate_number"`
	Make           string     `json:"make"`
	Model          string     `json:"model"`
	Year           int        `json:"year"`
	Mileage        int        `json:"mileage"`
	FuelType       string     `json:"fuel_type"`
	Color          *string    `json:"color,omitempty"`
	OwnershipType  string     `json:"ownership_type"`
	Status         string     `json:"status"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	PurchasePrice  *float64   `json:"purchase_price,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Assignment links a vehicle to the driver using it. UserID is the driver's
// account and is what ownership checks match against.
type Assignment struct {
	ID           uuid.UUID  `json:"id"`
	VehicleID    uuid.UUID  `json:"vehicle_id"`
	DriverID     uuid.UUID  `json:"driver_id"`
	UserID       uuid.UUID  `json:"user_id"`
	AssignedBy   uuid.UUID  `json:"assigned_by"`
	AssignedDate time.Time  `json:"assigned_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
	IsActive     bool       `json:"is_active"`
	Notes        *string    `json:"notes,omitempty"`
}
