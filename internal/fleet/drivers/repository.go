package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleet-manager/internal/platform/db"
	"github.com/fleetops/fleet-manager/internal/platform/httpx"
)

var ErrNotFound = fmt.Errorf("%w: driver", httpx.ErrNotFound)

type Repository interface {
	List(ctx context.Context, organizationID uuid.UUID) ([]Driver, error)
	Get(ctx context.Context, organizationID, id uuid.UUID) (*Driver, error)
	// Assignments returns assignments for the drivers, newest first. When
	// activeOnly is set only current assignments are included.
	Assignments(ctx context.Context, driverIDs []uuid.UUID, activeOnly bool) (map[uuid.UUID][]AssignmentSummary, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const driverQuery = `
	SELECT d.id, d.user_id, u.name, u.email, u.phone_number, d.license_number, d.license_expiry, u.is_active
	FROM drivers d
	JOIN users u ON u.id = d.user_id
	WHERE u.organization_id = $1`

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Email, &d.PhoneNumber, &d.LicenseNumber, &d.LicenseExpiry, &d.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) List(ctx context.Context, organizationID uuid.UUID) ([]Driver, error) {
	rows, err := r.db.Query(ctx, driverQuery+` ORDER BY u.name`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, *d)
	}
	return drivers, rows.Err()
}

func (r *repository) Get(ctx context.Context, organizationID, id uuid.UUID) (*Driver, error) {
	return scanDriver(r.db.QueryRow(ctx, driverQuery+` AND d.id = $2`, organizationID, id))
}

func (r *repository) Assignments(ctx context.Context, driverIDs []uuid.UUID, activeOnly bool) (map[uuid.UUID][]AssignmentSummary, error) {
	out := make(map[uuid.UUID][]AssignmentSummary, len(driverIDs))
	if len(driverIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT a.driver_id, a.vehicle_id, v.plate_number, a.assigned_date, a.returned_date, a.is_active
		FROM vehicle_assignments a
		JOIN vehicles v ON v.id = a.vehicle_id
		WHERE a.driver_id = ANY($1)`
	if activeOnly {
		query += ` AND a.is_active`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY a.assigned_date DESC`, driverIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var driverID uuid.UUID
		var a AssignmentSummary
		if err := rows.Scan(&driverID, &a.VehicleID, &a.PlateNumber, &a.AssignedDate, &a.ReturnedDate, &a.IsActive); err != nil {
			return nil, err
		}
		out[driverID] = append(out[driverID], a)
	}
	return out, rows.Err()
}
