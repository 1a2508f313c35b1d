// Package notifications runs the daily expiry and service reminder checks.
package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/fleet-manager/internal/rbac"
)

// Kinds of reminder, also used as notification_logs.type.
const (
	KindDocumentExpiry  = "DOCUMENT_EXPIRY"
	KindInsuranceExpiry = "INSURANCE_EXPIRY"
	KindServiceDue      = "SERVICE_DUE"
	KindLeaseExpiry     = "LEASE_EXPIRY"
)

const (
	DocumentHorizon  = 30 * 24 * time.Hour
	InsuranceHorizon = 30 * 24 * time.Hour
	LeaseHorizon     = 60 * 24 * time.Hour
	// ServiceDueKm is the remaining distance at which a service reminder
	// is sent.
	ServiceDueKm = 500
)

// Recipient role sets. Managers hold notifications:manage; finance adds
// the accountant for insurance and lease renewals.
var (
	ManagerRoles = []rbac.Role{rbac.RoleAdmin, rbac.RoleFleetManager}
	FinanceRoles = []rbac.Role{rbac.RoleAdmin, rbac.RoleFleetManager, rbac.RoleAccountant}
)

// VehicleRef identifies the vehicle a reminder is about.
type VehicleRef struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	PlateNumber    string
	Make           string
	Model          string
}

type ExpiringDocument struct {
	ID         uuid.UUID
	Vehicle    VehicleRef
	Type       string
	Name       string
	ExpiryDate time.Time
}

type ExpiringPolicy struct {
	ID           uuid.UUID
	Vehicle      VehicleRef
	PolicyNumber string
	Provider     string
	EndDate      time.Time
}

type ServiceDue struct {
	Vehicle   VehicleRef
	Mileage   int
	NextDueKm int
}

type ExpiringLease struct {
	ID             uuid.UUID
	Vehicle        VehicleRef
	LeasingCompany string
	ContractNumber string
	EndDate        time.Time
}

// LogEntry is one row of notification_logs.
type LogEntry struct {
	Type           string
	RecipientEmail string
	Subject        string
	Message        string
	VehicleID      uuid.UUID
	DocumentID     *uuid.UUID
	Status         string
}

// DaysUntil rounds the time left until t up to whole days.
func DaysUntil(now, t time.Time) int {
	d := t.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
