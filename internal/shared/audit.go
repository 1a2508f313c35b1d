package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityLog represents a record stored in activity_logs.
type ActivityLog struct {
	UserID   uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Details  map[string]any
	At       time.Time
}

// ActivityRecorder persists activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, log ActivityLog) error
}

// ActivityLogger writes records into activity_logs.
type ActivityLogger struct {
	pool *pgxpool.Pool
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool) *ActivityLogger {
	return &ActivityLogger{pool: pool}
}

// Record persists the log entry.
func (l *ActivityLogger) Record(ctx context.Context, log ActivityLog) error {
	if l == nil || l.pool == nil {
		return errors.New("activity logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("activity log requires action/entity/entity_id")
	}
	details, err := json.Marshal(log.Details)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO activity_logs (id, user_id, action, entity, entity_id, details, created_at) VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		uuid.New(), log.UserID, log.Action, log.Entity, log.EntityID, details, at)
	return err
}
