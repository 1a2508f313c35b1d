package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/fleetops/fleet-manager/internal/jobs"
	"github.com/fleetops/fleet-manager/internal/notifications"
	"github.com/fleetops/fleet-manager/internal/platform/mail"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSender struct {
	got []mail.Message
	err error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, msg)
	return nil
}

func TestSendEmailTaskRoundTrip(t *testing.T) {
	msg := mail.Message{To: "ops@fleet.test", Subject: "Service Due Soon", HTML: "<p>hi</p>"}
	task, err := NewSendEmailTask(msg)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSendEmail, task.Type())

	sender := &fakeSender{}
	job := NewMailJob(sender, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.got, 1)
	assert.Equal(t, msg, sender.got[0])
}

func TestMailJobRetryPolicy(t *testing.T) {
	job := NewMailJob(&fakeSender{err: errors.New("connection refused")}, discard, nil)
	task, err := NewSendEmailTask(mail.Message{To: "ops@fleet.test", Subject: "x"})
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "transient relay errors are retried")

	job = NewMailJob(&fakeSender{err: fmt.Errorf("%w: recipient", mail.ErrInvalidAddress)}, discard, nil)
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)

	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{"))), asynq.SkipRetry)
	empty, _ := json.Marshal(SendEmailPayload{Subject: "x"})
	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, empty)), asynq.SkipRetry)
}

func TestMailJobNotConfigured(t *testing.T) {
	var job *MailJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, nil)))
}

type stubRunner struct {
	report notifications.Report
	err    error
	calls  int
}

func (s *stubRunner) RunDaily(context.Context) (notifications.Report, error) {
	s.calls++
	return s.report, s.err
}

func TestNotifyJobPropagatesRunnerResult(t *testing.T) {
	runner := &stubRunner{report: notifications.Report{Queued: map[string]int{notifications.KindServiceDue: 2}}}
	job := NewNotifyJob(runner, discard, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), NewNotifyDailyTask()))
	assert.Equal(t, 1, runner.calls)

	runner.err = errors.New("documents: timeout")
	assert.ErrorIs(t, job.Handle(context.Background(), NewNotifyDailyTask()), runner.err)
}

func TestNotifyDailyTask(t *testing.T) {
	task := NewNotifyDailyTask()
	assert.Equal(t, TaskTypeNotifyDaily, task.Type())
	assert.Empty(t, task.Payload())
}

type stubInspector struct {
	infos map[string]*asynq.QueueInfo
	err   error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.infos[queue], s.err
}

func serveHealth(h *Handler) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rr
}

func TestHealthReportsQueues(t *testing.T) {
	rr := serveHealth(NewHandler(stubInspector{infos: map[string]*asynq.QueueInfo{
		QueueMail: {Queue: QueueMail, Pending: 4, Retry: 1, Archived: 2},
	}}, discard))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Queues []queueHealth `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []queueHealth{
		{Queue: QueueDefault},
		{Queue: QueueMail, Pending: 4, Retry: 1, Failed: 2},
	}, body.Queues)
}

func TestHealthUnavailable(t *testing.T) {
	rr := serveHealth(NewHandler(stubInspector{err: errors.New("redis down")}, discard))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
