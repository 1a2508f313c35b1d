// Package reports aggregates expense and utilization figures per vehicle.
package reports

import (
	"time"

	"github.com/google/uuid"
)

// UtilizationWindow is the look-back period of the utilization report.
const UtilizationWindow = 30 * 24 * time.Hour

type SummaryFilter struct {
	OrganizationID uuid.UUID
	VehicleIDs     []uuid.UUID
	VehicleID      *uuid.UUID
	From           *time.Time
	To             *time.Time
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type ExpenseSummary struct {
	Categories []CategoryTotal `json:"categories"`
	Total      float64         `json:"total"`
}

type VehicleUtilization struct {
	VehicleID       uuid.UUID `json:"id"`
	PlateNumber     string    `json:"plate_number"`
	Make            string    `json:"make"`
	Model           string    `json:"model"`
	AssignmentCount int       `json:"assignment_count"`
	TotalExpenses   float64   `json:"total_expenses"`
	Mileage         int       `json:"mileage"`
}
