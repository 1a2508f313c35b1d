package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fleetops/fleet-manager/internal/jobs"
	"github.com/fleetops/fleet-manager/internal/notifications"
)

// DailyRunner runs the reminder checks.
type DailyRunner interface {
	RunDaily(ctx context.Context) (notifications.Report, error)
}

// NotifyJob runs the scheduled reminder sweep.
type NotifyJob struct {
	Runner  DailyRunner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewNotifyJob initialises the reminder sweep handler.
func NewNotifyJob(runner DailyRunner, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotifyJob {
	return &NotifyJob{
		Runner:  runner,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes TaskTypeNotifyDaily.
func (j *NotifyJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Runner == nil {
		return errors.New("notify daily: handler not configured")
	}
	start := j.clock()
	tracker := j.Metrics.Track(TaskTypeNotifyDaily)
	defer func() {
		err = tracker.End(err)
	}()

	report, err := j.Runner.RunDaily(ctx)
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		slog.Any("queued", report.Queued),
		slog.Any("failed", report.Failed),
		slog.Duration("duration", j.clock().Sub(start)),
	}
	if err != nil {
		logger.Error("notification sweep finished with errors", append(attrs, slog.Any("error", err))...)
		return err
	}
	logger.Info("notification sweep finished", attrs...)
	return nil
}
