package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fleetops/fleet-manager/internal/jobs"
	"github.com/fleetops/fleet-manager/internal/platform/mail"
)

// MailJob delivers queued notification emails.
type MailJob struct {
	Sender  mail.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMailJob initialises the mail delivery handler.
func NewMailJob(sender mail.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *MailJob {
	return &MailJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sender == nil {
		return errors.New("mail send: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("mail send: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("mail send: empty recipient: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskTypeSendEmail)
	defer func() {
		err = tracker.End(err)
	}()

	if err = j.Sender.Send(ctx, payload.message()); err != nil {
		j.Metrics.AddEmail("failed")
		j.logger().Warn("send email failed", slog.String("to", payload.To), slog.String("subject", payload.Subject), slog.Any("error", err))
		if errors.Is(err, mail.ErrInvalidAddress) {
			return fmt.Errorf("mail send: %v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.Metrics.AddEmail("sent")
	j.logger().Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

func (j *MailJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
