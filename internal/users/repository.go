package users

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
	ErrNotFound      = fmt.Errorf("%w: user", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("%w: email already registered", httpx.ErrDuplicate)
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, organizationID uuid.UUID) ([]User, error)
	Create(ctx context.Context, user User) (*User, error)
	CreateDriver(ctx context.Context, driver DriverProfile) error
	UpdateRole(ctx context.Context, organizationID, id uuid.UUID, role string) (*User, error)
	Deactivate(ctx context.Context, organizationID, id uuid.UUID) (*User, error)
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

const userColumns = `u.id, u.organization_id, u.auth0_id, u.email, u.name, u.role, u.phone_number,
	u.is_active, d.id, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.OrganizationID, &u.Auth0ID, &u.Email, &u.Name, &u.Role, &u.PhoneNumber,
		&u.IsActive, &u.DriverID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) List(ctx context.Context, organizationID uuid.UUID) ([]User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		LEFT JOIN drivers d ON d.user_id = u.id
		WHERE u.organization_id = $1
		ORDER BY u.name`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *repository) Create(ctx context.Context, user User) (*User, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, organization_id, auth0_id, email, name, role, phone_number, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())`,
		user.ID, user.OrganizationID, user.Auth0ID, user.Email, user.Name, user.Role, user.PhoneNumber)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return r.get(ctx, user.OrganizationID, user.ID)
}

func (r *repository) CreateDriver(ctx context.Context, driver DriverProfile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO drivers (id, user_id, license_number, license_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		driver.ID, driver.UserID, driver.LicenseNumber, driver.LicenseExpiry)
	return err
}

func (r *repository) UpdateRole(ctx context.Context, organizationID, id uuid.UUID, role string) (*User, error) {
	return r.update(ctx, organizationID, id, "role = $3", role)
}

func (r *repository) Deactivate(ctx context.Context, organizationID, id uuid.UUID) (*User, error) {
	return r.update(ctx, organizationID, id, "is_active = $3", false)
}

func (r *repository) update(ctx context.Context, organizationID, id uuid.UUID, set string, value any) (*User, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE users SET "+set+", updated_at = NOW() WHERE id = $1 AND organization_id = $2",
		id, organizationID, value)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.get(ctx, organizationID, id)
}

func (r *repository) get(ctx context.Context, organizationID, id uuid.UUID) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u
		LEFT JOIN drivers d ON d.user_id = u.id
		WHERE u.id = $1 AND u.organization_id = $2`, id, organizationID))
}
