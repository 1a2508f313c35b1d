package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/fleetops/fleet-manager/internal/platform/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueMail holds outbound notification emails.
	QueueMail = "mail"
	// TaskTypeSendEmail is the task type for sending notification emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeNotifyDaily runs the expiry and service reminder checks.
	TaskTypeNotifyDaily = "notify:daily"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

func (p SendEmailPayload) message() mail.Message {
	return mail.Message{To: p.To, Subject: p.Subject, HTML: p.HTML, Text: p.Text}
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(msg mail.Message) (*asynq.Task, error) {
	data, err := json.Marshal(SendEmailPayload{To: msg.To, Subject: msg.Subject, HTML: msg.HTML, Text: msg.Text})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueMail), asynq.MaxRetry(5)), nil
}

// NewNotifyDailyTask constructs the reminder sweep task. It never retries:
// reminders already queued by a partially failed run would be sent twice.
func NewNotifyDailyTask() *asynq.Task {
	return asynq.NewTask(TaskTypeNotifyDaily, nil, asynq.Queue(QueueDefault), asynq.MaxRetry(0))
}
