package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleet-manager/internal/platform/db"
	"github.com/fleetops/fleet-manager/internal/rbac"
)

type Repository interface {
	ExpiringDocuments(ctx context.Context, from, to time.Time) ([]ExpiringDocument, error)
	MarkDocumentReminded(ctx context.Context, id uuid.UUID, at time.Time) error
	ExpiringPolicies(ctx context.Context, from, to time.Time) ([]ExpiringPolicy, error)
	MarkPolicyReminded(ctx context.Context, id uuid.UUID) error
	ServiceDue(ctx context.Context, withinKm int) ([]ServiceDue, error)
	ExpiringLeases(ctx context.Context, from, to time.Time) ([]ExpiringLease, error)
	RecipientEmails(ctx context.Context, organizationID uuid.UUID, roles []rbac.Role) ([]string, error)
	ActiveDriverEmails(ctx context.Context, vehicleID uuid.UUID) ([]string, error)
	LogNotification(ctx context.Context, entry LogEntry) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const vehicleRefColumns = `v.id, v.organization_id, v.plate_number, v.make, v.model`

func (r *repository) ExpiringDocuments(ctx context.Context, from, to time.Time) ([]ExpiringDocument, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.type, d.name, d.expiry_date, `+vehicleRefColumns+`
		FROM documents d
		JOIN vehicles v ON v.id = d.vehicle_id
		WHERE d.expiry_date BETWEEN $1 AND $2 AND NOT d.reminder_sent
		ORDER BY d.expiry_date`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ExpiringDocument, error) {
		var d ExpiringDocument
		err := row.Scan(&d.ID, &d.Type, &d.Name, &d.ExpiryDate,
			&d.Vehicle.ID, &d.Vehicle.OrganizationID, &d.Vehicle.PlateNumber, &d.Vehicle.Make, &d.Vehicle.Model)
		return d, err
	})
}

func (r *repository) MarkDocumentReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE documents SET reminder_sent = TRUE, reminder_date = $2 WHERE id = $1`, id, at)
	return err
}

func (r *repository) ExpiringPolicies(ctx context.Context, from, to time.Time) ([]ExpiringPolicy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.policy_number, p.provider, p.end_date, `+vehicleRefColumns+`
		FROM insurance_policies p
		JOIN vehicles v ON v.id = p.vehicle_id
		WHERE p.end_date BETWEEN $1 AND $2 AND NOT p.reminder_sent
		ORDER BY p.end_date`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ExpiringPolicy, error) {
		var p ExpiringPolicy
		err := row.Scan(&p.ID, &p.PolicyNumber, &p.Provider, &p.EndDate,
			&p.Vehicle.ID, &p.Vehicle.OrganizationID, &p.Vehicle.PlateNumber, &p.Vehicle.Make, &p.Vehicle.Model)
		return p, err
	})
}

func (r *repository) MarkPolicyReminded(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE insurance_policies SET reminder_sent = TRUE WHERE id = $1`, id)
	return err
}

func (r *repository) ServiceDue(ctx context.Context, withinKm int) ([]ServiceDue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+vehicleRefColumns+`, v.mileage, m.next_due_km
		FROM vehicles v
		JOIN LATERAL (
			SELECT next_due_km FROM maintenance_records
			WHERE vehicle_id = v.id
			ORDER BY performed_date DESC
			LIMIT 1
		) m ON TRUE
		WHERE v.status = 'ACTIVE'
		  AND m.next_due_km IS NOT NULL
		  AND m.next_due_km - v.mileage > 0
		  AND m.next_due_km - v.mileage <= $1
		ORDER BY v.plate_number`, withinKm)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ServiceDue, error) {
		var s ServiceDue
		err := row.Scan(&s.Vehicle.ID, &s.Vehicle.OrganizationID, &s.Vehicle.PlateNumber, &s.Vehicle.Make, &s.Vehicle.Model,
			&s.Mileage, &s.NextDueKm)
		return s, err
	})
}

func (r *repository) ExpiringLeases(ctx context.Context, from, to time.Time) ([]ExpiringLease, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.leasing_company, l.contract_number, l.end_date, `+vehicleRefColumns+`
		FROM lease_contracts l
		JOIN vehicles v ON v.id = l.vehicle_id
		WHERE l.end_date BETWEEN $1 AND $2
		ORDER BY l.end_date`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ExpiringLease, error) {
		var l ExpiringLease
		err := row.Scan(&l.ID, &l.LeasingCompany, &l.ContractNumber, &l.EndDate,
			&l.Vehicle.ID, &l.Vehicle.OrganizationID, &l.Vehicle.PlateNumber, &l.Vehicle.Make, &l.Vehicle.Model)
		return l, err
	})
}

func (r *repository) RecipientEmails(ctx context.Context, organizationID uuid.UUID, roles []rbac.Role) ([]string, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	rows, err := r.db.Query(ctx, `
		SELECT email FROM users
		WHERE organization_id = $1 AND role = ANY($2) AND is_active
		ORDER BY email`, organizationID, names)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *repository) ActiveDriverEmails(ctx context.Context, vehicleID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.email
		FROM vehicle_assignments a
		JOIN drivers d ON d.id = a.driver_id
		JOIN users u ON u.id = d.user_id
		WHERE a.vehicle_id = $1 AND a.is_active AND u.is_active`, vehicleID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *repository) LogNotification(ctx context.Context, e LogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_logs (id, type, recipient_email, subject, message, vehicle_id, document_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		uuid.New(), e.Type, e.RecipientEmail, e.Subject, e.Message, e.VehicleID, e.DocumentID, e.Status)
	return err
}
