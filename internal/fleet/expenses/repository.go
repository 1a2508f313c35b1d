package expenses

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleet-manager/internal/platform/db"
	"github.com/fleetops/fleet-manager/internal/platform/httpx"
)

var ErrVehicleNotFound = fmt.Errorf("%w: vehicle", httpx.ErrNotFound)

type Repository interface {
	List(ctx context.Context, req ListExpensesRequest) ([]Expense, error)
	Create(ctx context.Context, expense Expense) error
	VehicleInOrganization(ctx context.Context, organizationID, vehicleID uuid.UUID) (bool, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context, req ListExpensesRequest) ([]Expense, error) {
	if req.VehicleIDs != nil && len(req.VehicleIDs) == 0 {
		return nil, nil
	}

	conditions := []string{"v.organization_id = $1"}
	args := []any{req.OrganizationID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if req.VehicleIDs != nil {
		add("e.vehicle_id = ANY($%d)", req.VehicleIDs)
	}
	if req.VehicleID != nil {
		add("e.vehicle_id = $%d", *req.VehicleID)
	}
	if req.Category != nil {
		add("e.category = $%d", *req.Category)
	}
	if req.From != nil {
		add("e.date >= $%d", *req.From)
	}
	if req.To != nil {
		add("e.date <= $%d", *req.To)
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.vehicle_id, v.plate_number, e.category, e.amount, e.date, e.description,
		       e.odometer, e.supplier, e.created_by_id, e.created_at
		FROM expenses e
		JOIN vehicles v ON v.id = e.vehicle_id
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY e.date DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.VehicleID, &e.PlateNumber, &e.Category, &e.Amount, &e.Date, &e.Description,
			&e.Odometer, &e.Supplier, &e.CreatedByID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, e Expense) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO expenses (id, vehicle_id, category, amount, date, description, odometer, supplier, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.VehicleID, e.Category, e.Amount, e.Date, e.Description, e.Odometer, e.Supplier, e.CreatedByID, e.CreatedAt)
	return err
}

func (r *repository) VehicleInOrganization(ctx context.Context, organizationID, vehicleID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1 AND organization_id = $2)`, vehicleID, organizationID).Scan(&ok)
	return ok, err
}
