package users

import (
	"time"

	"github.com/google/uuid"
)

// User is an account belonging to one organization.
type User struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Auth0ID        string     `json:"auth0_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	PhoneNumber    *string    `json:"phone_number,omitempty"`
	IsActive       bool       `json:"is_active"`
	DriverID       *uuid.UUID `json:"driver_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DriverProfile is the driver record created alongside a DRIVER user.
type DriverProfile struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	LicenseNumber string
	LicenseExpiry time.Time
}
