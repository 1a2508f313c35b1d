package drivers

import (
	"time"

	"github.com/google/uuid"
)

type Driver struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	PhoneNumber   *string             `json:"phone_number,omitempty"`
	LicenseNumber string              `json:"license_number"`
	LicenseExpiry time.Time           `json:"license_expiry"`
	IsActive      bool                `json:"is_active"`
	Assignments   []AssignmentSummary `json:"assignments"`
}

type AssignmentSummary struct {
	VehicleID    uuid.UUID  `json:"vehicle_id"`
	PlateNumber  string     `json:"plate_number"`
	AssignedDate time.Time  `json:"assigned_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
	IsActive     bool       `json:"is_active"`
}
