package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleet-manager/internal/platform/db"
)

type Repository interface {
	ExpenseTotals(ctx context.Context, filter SummaryFilter) ([]CategoryTotal, error)
	Utilization(ctx context.Context, organizationID uuid.UUID, vehicleIDs []uuid.UUID, since time.Time) ([]VehicleUtilization, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) ExpenseTotals(ctx context.Context, f SummaryFilter) ([]CategoryTotal, error) {
	conditions := []string{"v.organization_id = $1"}
	args := []any{f.OrganizationID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if f.VehicleIDs != nil {
		add("e.vehicle_id = ANY($%d)", f.VehicleIDs)
	}
	if f.VehicleID != nil {
		add("e.vehicle_id = $%d", *f.VehicleID)
	}
	if f.From != nil {
		add("e.date >= $%d", *f.From)
	}
	if f.To != nil {
		add("e.date <= $%d", *f.To)
	}

	rows, err := r.db.Query(ctx, `
		SELECT e.category, COALESCE(SUM(e.amount), 0)::float8, COUNT(*)
		FROM expenses e
		JOIN vehicles v ON v.id = e.vehicle_id
		WHERE `+strings.Join(conditions, " AND ")+`
		GROUP BY e.category
		ORDER BY e.category`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var c CategoryTotal
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Utilization(ctx context.Context, organizationID uuid.UUID, vehicleIDs []uuid.UUID, since time.Time) ([]VehicleUtilization, error) {
	query := `
		SELECT v.id, v.plate_number, v.make, v.model, v.mileage,
		       (SELECT COUNT(*) FROM vehicle_assignments a WHERE a.vehicle_id = v.id AND a.assigned_date >= $2),
		       (SELECT COALESCE(SUM(e.amount), 0)::float8 FROM expenses e WHERE e.vehicle_id = v.id AND e.date >= $2)
		FROM vehicles v
		WHERE v.organization_id = $1`
	args := []any{organizationID, since}
	if vehicleIDs != nil {
		query += ` AND v.id = ANY($3)`
		args = append(args, vehicleIDs)
	}

	rows, err := r.db.Query(ctx, query+` ORDER BY v.plate_number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VehicleUtilization
	for rows.Next() {
		var u VehicleUtilization
		if err := rows.Scan(&u.VehicleID, &u.PlateNumber, &u.Make, &u.Model, &u.Mileage, &u.AssignmentCount, &u.TotalExpenses); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
