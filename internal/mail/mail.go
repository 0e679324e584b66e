// Package mail sends transactional email.
//
// Sender is the only contract callers see.  Resend delivers through the
// Resend HTTP API; Log only records what would have been sent, which is the
// default when no API key is configured.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned for a message without recipients.
var ErrNoRecipient = errors.New("mail: no recipient")

// Message is one outgoing email.  HTML and Text may both be set.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m *Message) error
}

// Config selects and configures the sender.
type Config struct {
	APIKey   string `koanf:"resend_api_key"`
	FromAddr string `koanf:"from_address" validate:"omitempty,email"`
	FromName string `koanf:"from_name"`
}

// NewSender returns a Resend sender when cfg carries an API key, else a Log
// sender.
func NewSender(cfg Config, log *zap.SugaredLogger) Sender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewLog(log)
	}
	return NewResend(cfg)
}

/*──────────────────────────── resend ──────────────────────────────────────*/

// emails is the slice of the Resend client used here.
type emails interface {
	SendWithContext(ctx context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend delivers through the Resend API.
type Resend struct {
	emails emails
	from   string
}

// NewResend builds a Resend sender from cfg.
func NewResend(cfg Config) *Resend {
	from := cfg.FromAddr
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddr)
	}
	return &Resend{emails: resend.NewClient(cfg.APIKey).Emails, from: from}
}

func (s *Resend) Send(ctx context.Context, m *Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	_, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      m.To,
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
	})
	return errors.Wrap(err, "resend: send email")
}

/*──────────────────────────── log ─────────────────────────────────────────*/

// Log writes messages to the logger instead of sending them.
type Log struct {
	log *zap.SugaredLogger
}

func NewLog(log *zap.SugaredLogger) *Log {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Log{log: log}
}

func (s *Log) Send(_ context.Context, m *Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	s.log.Infow("mail not sent, no provider configured", "to", m.To, "subject", m.Subject)
	return nil
}
