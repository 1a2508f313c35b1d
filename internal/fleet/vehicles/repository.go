package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleet-manager/internal/platform/db"
	"github.com/fleetops/fleet-manager/internal/platform/httpx"
)

var (
	ErrNotFound       = fmt.Errorf("%w: vehicle", httpx.ErrNotFound)
	ErrDriverNotFound = fmt.Errorf("%w: driver", httpx.ErrNotFound)
	ErrAlreadyExists  = fmt.Errorf("%w: vin or plate number already registered", httpx.ErrDuplicate)
)

type Repository interface {
	AssignmentReader
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, error)
	Get(ctx context.Context, organizationID, id uuid.UUID) (*Vehicle, error)
	Create(ctx context.Context, vehicle Vehicle) error
	Update(ctx context.Context, organizationID, id uuid.UUID, updates map[string]any) error
	EndActiveAssignments(ctx context.Context, vehicleID uuid.UUID, at time.Time) error
	CreateAssignment(ctx context.Context, assignment Assignment) error
	DriverUserID(ctx context.Context, organizationID, driverID uuid.UUID) (uuid.UUID, error)
}

// AssignmentReader answers assignment lookups used for ownership checks.
type AssignmentReader interface {
	IsAssigned(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error)
	AssignedVehicleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const vehicleColumns = `id, organization_id, vin, plate_number, make, model, year, mileage, fuel_type,
	color, ownership_type, status, purchase_date, purchase_price, created_at, updated_at`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.OrganizationID, &v.VIN, &v.PlateNumber, &v.Make, &v.Model, &v.Year, &v.Mileage, &v.FuelType,
		&v.Color, &v.OwnershipType, &v.Status, &v.PurchaseDate, &v.PurchasePrice, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *repository) List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, error) {
	if req.VehicleIDs != nil && len(req.VehicleIDs) == 0 {
		return nil, nil
	}

	conditions := []string{"organization_id = $1"}
	args := []any{req.OrganizationID}
	if req.VehicleIDs != nil {
		args = append(args, req.VehicleIDs)
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if req.Status != nil {
		args = append(args, *req.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	rows, err := r.db.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE `+strings.Join(conditions, " AND ")+` ORDER BY plate_number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (r *repository) Get(ctx context.Context, organizationID, id uuid.UUID) (*Vehicle, error) {
	return scanVehicle(r.db.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 AND organization_id = $2`, id, organizationID))
}

func (r *repository) Create(ctx context.Context, v Vehicle) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vehicles (id, organization_id, vin, plate_number, make, model, year, mileage, fuel_type,
			color, ownership_type, status, purchase_date, purchase_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())`,
		v.ID, v.OrganizationID, v.VIN, v.PlateNumber, v.Make, v.Model, v.Year, v.Mileage, v.FuelType,
		v.Color, v.OwnershipType, v.Status, v.PurchaseDate, v.PurchasePrice)
	if db.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

// updatableColumns fixes the SET order so generated statements are stable.
var updatableColumns = []string{"plate_number", "make", "model", "mileage", "fuel_type", "color", "ownership_type", "status"}

func (r *repository) Update(ctx context.Context, organizationID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE vehicles SET updated_at = NOW()"
	args := []any{id, organizationID}
	for _, col := range updatableColumns {
		v, ok := updates[col]
		if !ok {
			continue
		}
		args = append(args, v)
		query += fmt.Sprintf(", %s = $%d", col, len(args))
	}
	query += " WHERE id = $1 AND organization_id = $2"

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) EndActiveAssignments(ctx context.Context, vehicleID uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE vehicle_assignments SET is_active = FALSE, returned_date = $2
		WHERE vehicle_id = $1 AND is_active`, vehicleID, at)
	return err
}

func (r *repository) CreateAssignment(ctx context.Context, a Assignment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vehicle_assignments (id, vehicle_id, driver_id, user_id, assigned_by, assigned_date, is_active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)`,
		a.ID, a.VehicleID, a.DriverID, a.UserID, a.AssignedBy, a.AssignedDate, a.Notes)
	return err
}

func (r *repository) DriverUserID(ctx context.Context, organizationID, driverID uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.QueryRow(ctx, `
		SELECT d.user_id FROM drivers d
		JOIN users u ON u.id = d.user_id
		WHERE d.id = $1 AND u.organization_id = $2 AND u.is_active`, driverID, organizationID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrDriverNotFound
	}
	return userID, err
}

func (r *repository) IsAssigned(ctx context.Context, userID, vehicleID uuid.UUID) (bool, error) {
	var assigned bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM vehicle_assignments
			WHERE user_id = $1 AND vehicle_id = $2 AND is_active
		)`, userID, vehicleID).Scan(&assigned)
	return assigned, err
}

func (r *repository) AssignedVehicleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT vehicle_id FROM vehicle_assignments WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}
