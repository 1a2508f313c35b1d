package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleet-manager/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindBySubject(ctx context.Context, subject string) (*Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const findBySubjectSQL = `
SELECT id, organization_id, auth0_id, email, name, role, is_active
FROM users
WHERE auth0_id = $1`

// FindBySubject fetches the user bound to the identity provider subject.
func (r *PGRepository) FindBySubject(ctx context.Context, subject string) (*Account, error) {
	var acc Account
	p := &acc.Principal
	err := r.pool.QueryRow(ctx, findBySubjectSQL, subject).Scan(
		&p.UserID, &p.OrganizationID, &p.Subject, &p.Email, &p.Name, &p.Role, &acc.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

var _ Repository = (*PGRepository)(nil)
