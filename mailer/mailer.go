// Package mailer sends club email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/padraicbc/footy/apperr"
	"github.com/padraicbc/footy/config"
	"github.com/padraicbc/footy/metrics"
)

// Message is one email. At least one of To, Cc or Bcc must be set.
type Message struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	HTML    string
}

func (m Message) recipients() int {
	return len(m.To) + len(m.Cc) + len(m.Bcc)
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTP delivers through a relay.
type SMTP struct {
	client  *mail.Client
	from    string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New returns the SMTP mailer, or a logging Fake when MAIL_DRY_RUN is set.
func New(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (Mailer, error) {
	if cfg.MailDryRun {
		return NewFake(logger), nil
	}
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return &SMTP{client: client, from: cfg.MailFrom, logger: logger.Named("mailer"), metrics: m}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if msg.recipients() == 0 {
		return apperr.Validation("no recipients", nil)
	}
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return apperr.Validation("invalid sender address", err)
	}
	if len(msg.To) > 0 {
		if err := m.To(msg.To...); err != nil {
			return apperr.Validation("invalid recipient address", err)
		}
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return apperr.Validation("invalid recipient address", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return apperr.Validation("invalid recipient address", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		s.metrics.MailFailed()
		s.logger.Warn("send failed", zap.String("subject", msg.Subject), zap.Error(err))
		return apperr.External("mail", err)
	}
	s.metrics.MailSent()
	s.logger.Debug("sent", zap.String("subject", msg.Subject), zap.Int("recipients", msg.recipients()))
	return nil
}

// Fake records messages instead of sending them.
type Fake struct {
	mu     sync.Mutex
	sent   []Message
	logger *zap.Logger

	// Err, when set, is returned from Send for any message whose first
	// recipient matches FailFor, or for every message if FailFor is empty.
	Err     error
	FailFor string
}

var _ Mailer = (*Fake)(nil)

func NewFake(logger *zap.Logger) *Fake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fake{logger: logger.Named("mailer")}
}

func (f *Fake) Send(ctx context.Context, msg Message) error {
	if msg.recipients() == 0 {
		return apperr.Validation("no recipients", nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil && (f.FailFor == "" || first(msg) == f.FailFor) {
		return apperr.External("mail", f.Err)
	}
	f.sent = append(f.sent, msg)
	f.logger.Info("dry run", zap.String("subject", msg.Subject), zap.Int("recipients", msg.recipients()))
	return nil
}

// Sent returns a copy of every recorded message.
func (f *Fake) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

func first(msg Message) string {
	for _, list := range [][]string{msg.To, msg.Cc, msg.Bcc} {
		if len(list) > 0 {
			return list[0]
		}
	}
	return ""
}

// ErrRefused is a canned failure for tests.
var ErrRefused = errors.New("relay refused message")
