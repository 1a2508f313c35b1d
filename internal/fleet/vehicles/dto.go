package vehicles

import "github.com/google/uuid"

type CreateVehicleRequest struct {
	VIN           string   `json:"vin" validate:"required,len=17"`
	PlateNumber   string   `json:"plate_number" validate:"required,max=20"`
	Make          string   `json:"make" validate:"required,max=100"`
	Model         string   `json:"model" validate:"required,max=100"`
	Year          int      `json:"year" validate:"required,gte=1900"`
	Mileage       int      `json:"mileage" validate:"gte=0"`
	FuelType      string   `json:"fuel_type" validate:"required,max=50"`
	Color         *string  `json:"color,omitempty" validate:"omitempty,max=50"`
	OwnershipType string   `json:"ownership_type" validate:"required,oneof=OWNED LEASED RENTED"`
	PurchaseDate  *string  `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice *float64 `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
}

type UpdateVehicleRequest struct {
	PlateNumber   *string `json:"plate_number,omitempty" validate:"omitempty,min=1,max=20"`
	Make          *string `json:"make,omitempty" validate:"omitempty,min=1,max=100"`
	Model         *string `json:"model,omitempty" validate:"omitempty,min=1,max=100"`
	Mileage       *int    `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	FuelType      *string `json:"fuel_type,omitempty" validate:"omitempty,min=1,max=50"`
	Color         *string `json:"color,omitempty" validate:"omitempty,max=50"`
	OwnershipType *string `json:"ownership_type,omitempty" validate:"omitempty,oneof=OWNED LEASED RENTED"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE MAINTENANCE SOLD"`
}

type AssignVehicleRequest struct {
	DriverID uuid.UUID `json:"driver_id" validate:"required"`
	Notes    *string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ListVehiclesRequest filters a listing. A non-nil VehicleIDs restricts the
// result to those vehicles; an empty non-nil slice matches nothing.
type ListVehiclesRequest struct {
	OrganizationID uuid.UUID
	VehicleIDs     []uuid.UUID
	Status         *string
}
