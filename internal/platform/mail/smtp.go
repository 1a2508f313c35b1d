// Package mail delivers notification emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a single notification email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// ErrInvalidAddress reports a recipient or sender that cannot be parsed.
var ErrInvalidAddress = errors.New("mail: invalid address")

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender implements Sender with net/smtp.
type SMTPSender struct {
	cfg  Config
	now  func() time.Time
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{cfg: cfg, now: time.Now, send: smtp.SendMail}
}

// Send delivers msg. Context cancellation is honoured before dialing only;
// net/smtp has no context support.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("%w: recipient %q: %v", ErrInvalidAddress, msg.To, err)
	}
	from, err := mail.ParseAddress(s.cfg.From)
	if err != nil {
		return fmt.Errorf("%w: sender %q: %v", ErrInvalidAddress, s.cfg.From, err)
	}
	raw, err := s.build(from, to, msg)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.send(addr, auth, from.Address, []string{to.Address}, raw); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to.Address, err)
	}
	return nil
}

func (s *SMTPSender) build(from, to *mail.Address, msg Message) ([]byte, error) {
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, errors.New("mail: subject required")
	}
	text := msg.Text
	if text == "" {
		text = StripTags(msg.HTML)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=utf-8", text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		qp := quotedprintable.NewWriter(w)
		if _, err := qp.Write([]byte(p.content)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	headers := []string{
		"From: " + from.String(),
		"To: " + to.String(),
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + s.now().Format(time.RFC1123Z),
		"Message-ID: <" + uuid.NewString() + "@" + domainOf(from.Address) + ">",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}
	for _, h := range headers {
		out.WriteString(h + "\r\n")
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[i+1:]
	}
	return "localhost"
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags derives a plain-text body from HTML.
func StripTags(html string) string {
	lines := strings.Split(tagPattern.ReplaceAllString(html, ""), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

var _ Sender = (*SMTPSender)(nil)
