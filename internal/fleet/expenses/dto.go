package expenses

import (
	"time"

	"github.com/google/uuid"
)

type CreateExpenseRequest struct {
	VehicleID   uuid.UUID `json:"vehicle_id" validate:"required"`
	Category    string    `json:"category" validate:"required,oneof=FUEL MAINTENANCE INSURANCE REGISTRATION PARKING TOLLS FINES OTHER"`
	Amount      float64   `json:"amount" validate:"gt=0"`
	Date        string    `json:"date" validate:"required"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Odometer    *int      `json:"odometer,omitempty" validate:"omitempty,gt=0"`
	Supplier    *string   `json:"supplier,omitempty" validate:"omitempty,max=200"`
}

// ListExpensesRequest filters a listing. A non-nil VehicleIDs restricts the
// result to those vehicles; an empty non-nil slice matches nothing.
type ListExpensesRequest struct {
	OrganizationID uuid.UUID
	VehicleIDs     []uuid.UUID
	VehicleID      *uuid.UUID
	Category       *string
	From           *time.Time
	To             *time.Time
}
