package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fleetops/fleet-manager/internal/platform/mail"
)

// Enqueuer hands a message to the delivery queue.
type Enqueuer interface {
	EnqueueMail(ctx context.Context, msg mail.Message) error
}

// Observer counts reminders by kind and outcome.
type Observer interface {
	ObserveNotification(kind, status string)
}

// Report counts the reminders queued by one run.
type Report struct {
	Queued map[string]int
	Failed map[string]int
}

type Service struct {
	repo     Repository
	mailer   Enqueuer
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, mailer Enqueuer, observer Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, mailer: mailer, observer: observer, logger: logger, now: time.Now}
}

// RunDaily runs every reminder check. A failing check is logged and the
// remaining checks still run; the returned error joins all failures.
func (s *Service) RunDaily(ctx context.Context) (Report, error) {
	report := Report{Queued: make(map[string]int), Failed: make(map[string]int)}
	checks := []struct {
		kind string
		run  func(context.Context, *Report) error
	}{
		{KindDocumentExpiry, s.checkDocuments},
		{KindInsuranceExpiry, s.checkInsurance},
		{KindServiceDue, s.checkServiceDue},
		{KindLeaseExpiry, s.checkLeases},
	}

	var errs []error
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := check.run(ctx, &report); err != nil {
			s.logger.Error("notification check failed", slog.String("kind", check.kind), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", strings.ToLower(check.kind), err))
		}
	}
	s.logger.Info("notification checks finished", slog.Any("queued", report.Queued), slog.Any("failed", report.Failed))
	return report, errors.Join(errs...)
}

func (s *Service) checkDocuments(ctx context.Context, report *Report) error {
	now := s.now()
	docs, err := s.repo.ExpiringDocuments(ctx, now, now.Add(DocumentHorizon))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		recipients, err := s.repo.RecipientEmails(ctx, doc.Vehicle.OrganizationID, ManagerRoles)
		if err != nil {
			return err
		}
		days := DaysUntil(now, doc.ExpiryDate)
		subject := "Document Expiring Soon - " + doc.Vehicle.PlateNumber
		html, err := render("document", map[string]any{"Doc": doc, "Days": days})
		if err != nil {
			return err
		}
		sent := s.send(ctx, report, KindDocumentExpiry, recipients, subject, html)

		if err := s.repo.MarkDocumentReminded(ctx, doc.ID, now); err != nil {
			return err
		}
		docID := doc.ID
		if err := s.repo.LogNotification(ctx, LogEntry{
			Type:           KindDocumentExpiry,
			RecipientEmail: strings.Join(sent, ", "),
			Subject:        subject,
			Message:        fmt.Sprintf("%s expiring in %d days", doc.Type, days),
			VehicleID:      doc.Vehicle.ID,
			DocumentID:     &docID,
			Status:         logStatus(sent, recipients),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkInsurance(ctx context.Context, report *Report) error {
	now := s.now()
	policies, err := s.repo.ExpiringPolicies(ctx, now, now.Add(InsuranceHorizon))
	if err != nil {
		return err
	}
	for _, policy := range policies {
		recipients, err := s.repo.RecipientEmails(ctx, policy.Vehicle.OrganizationID, FinanceRoles)
		if err != nil {
			return err
		}
		html, err := render("insurance", map[string]any{"Policy": policy, "Days": DaysUntil(now, policy.EndDate)})
		if err != nil {
			return err
		}
		s.send(ctx, report, KindInsuranceExpiry, recipients, "Insurance Policy Expiring - "+policy.Vehicle.PlateNumber, html)
		if err := s.repo.MarkPolicyReminded(ctx, policy.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkServiceDue(ctx context.Context, report *Report) error {
	due, err := s.repo.ServiceDue(ctx, ServiceDueKm)
	if err != nil {
		return err
	}
	for _, d := range due {
		managers, err := s.repo.RecipientEmails(ctx, d.Vehicle.OrganizationID, ManagerRoles)
		if err != nil {
			return err
		}
		drivers, err := s.repo.ActiveDriverEmails(ctx, d.Vehicle.ID)
		if err != nil {
			return err
		}
		html, err := render("service", map[string]any{"Due": d, "Remaining": d.NextDueKm - d.Mileage})
		if err != nil {
			return err
		}
		s.send(ctx, report, KindServiceDue, dedupe(append(managers, drivers...)), "Service Due Soon - "+d.Vehicle.PlateNumber, html)
	}
	return nil
}

func (s *Service) checkLeases(ctx context.Context, report *Report) error {
	now := s.now()
	leases, err := s.repo.ExpiringLeases(ctx, now, now.Add(LeaseHorizon))
	if err != nil {
		return err
	}
	for _, lease := range leases {
		recipients, err := s.repo.RecipientEmails(ctx, lease.Vehicle.OrganizationID, FinanceRoles)
		if err != nil {
			return err
		}
		html, err := render("lease", map[string]any{"Lease": lease, "Days": DaysUntil(now, lease.EndDate)})
		if err != nil {
			return err
		}
		s.send(ctx, report, KindLeaseExpiry, recipients, "Lease Contract Ending - "+lease.Vehicle.PlateNumber, html)
	}
	return nil
}

// send enqueues one message per recipient and returns those that were
// accepted. Enqueue failures are counted but do not abort the check.
func (s *Service) send(ctx context.Context, report *Report, kind string, recipients []string, subject, html string) []string {
	accepted := make([]string, 0, len(recipients))
	for _, to := range recipients {
		status := "queued"
		if err := s.mailer.EnqueueMail(ctx, mail.Message{To: to, Subject: subject, HTML: html}); err != nil {
			status = "failed"
			s.logger.Warn("enqueue notification failed", slog.String("kind", kind), slog.String("to", to), slog.Any("error", err))
			report.Failed[kind]++
		} else {
			accepted = append(accepted, to)
			report.Queued[kind]++
		}
		if s.observer != nil {
			s.observer.ObserveNotification(kind, status)
		}
	}
	return accepted
}

func logStatus(sent, recipients []string) string {
	switch {
	case len(recipients) == 0:
		return "no_recipients"
	case len(sent) == len(recipients):
		return "sent"
	case len(sent) == 0:
		return "failed"
	default:
		return "partial"
	}
}

func dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
