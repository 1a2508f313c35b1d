package documents

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

var (
	ErrNotFound        = fmt.Errorf("%w: document", httpx.ErrNotFound)
	ErrVehicleNotFound = fmt.Errorf("%w: vehicle", httpx.ErrNotFound)
)

type Repository interface {
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]Document, error)
	Get(ctx context.Context, organizationID, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	VehicleInOrganization(ctx context.Context, organizationID, vehicleID uuid.UUID) (bool, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const documentColumns = `d.id, d.vehicle_id, d.type, d.name, d.document_url, d.storage_key, d.expiry_date,
	d.reminder_sent, d.uploaded_by, d.created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.VehicleID, &d.Type, &d.Name, &d.DocumentURL, &d.StorageKey, &d.ExpiryDate,
		&d.ReminderSent, &d.UploadedBy, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]Document, error) {
	rows, err := r.db.Query(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.vehicle_id = $1 ORDER BY d.created_at DESC`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *repository) Get(ctx context.Context, organizationID, id uuid.UUID) (*Document, error) {
	return scanDocument(r.db.QueryRow(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		JOIN vehicles v ON v.id = d.vehicle_id
		WHERE d.id = $1 AND v.organization_id = $2`, id, organizationID))
}

func (r *repository) Create(ctx context.Context, d Document) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO documents (id, vehicle_id, type, name, document_url, storage_key, expiry_date, reminder_sent, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9)`,
		d.ID, d.VehicleID, d.Type, d.Name, d.DocumentURL, d.StorageKey, d.ExpiryDate, d.UploadedBy, d.CreatedAt)
	return err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) VehicleInOrganization(ctx context.Context, organizationID, vehicleID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vehicles WHERE id = $1 AND organization_id = $2)`, vehicleID, organizationID).Scan(&ok)
	return ok, err
}
