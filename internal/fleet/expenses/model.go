package expenses

import (
	"time"

	"github.com/google/uuid"
)

const (
	CategoryFuel         = "FUEL"
	CategoryMaintenance  = "MAINTENANCE"
	CategoryInsurance    = "INSURANCE"
	CategoryRegistration = "REGISTRATION"
	CategoryParking      = "PARKING"
	CategoryTolls        = "TOLLS"
	CategoryFines        = "FINES"
	CategoryOther        = "OTHER"
)

type Expense struct {
	ID          uuid.UUID `json:"id"`
	VehicleID   uuid.UUID `json:"vehicle_id"`
	PlateNumber string    `json:"plate_number,omitempty"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Description *string   `json:"description,omitempty"`
	Odometer    *int      `json:"odometer,omitempty"`
	Supplier    *string   `json:"supplier,omitempty"`
	CreatedByID uuid.UUID `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}
