package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/pkg/logger"
)

// Notifier sends operational mail. Callers treat it as fire-and-forget; a
// failed notification never fails the write that triggered it.
type Notifier interface {
	NotifyNewLead(ctx context.Context, c *model.Case) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SalesTo  string
}

type smtpNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger *logger.Logger
}

func NewSMTPNotifier(cfg SMTPConfig, log *logger.Logger) Notifier {
	return &smtpNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.SalesTo,
		logger: log,
	}
}

func (n *smtpNotifier) NotifyNewLead(_ context.Context, c *model.Case) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("New lead: %s (%s)", c.Name, c.Source))
	m.SetBody("text/plain", fmt.Sprintf(
		"A new case was created.\n\nRef: %s\nName: %s\nEmail: %s\nPhone: %s\nTreatment: %s\nLanguage: %s\n\nMessage:\n%s\n",
		c.Ref, c.Name, c.Email, c.Phone, c.Treatment, c.Lang, c.Message,
	))

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send new lead notification: %w", err)
	}
	return nil
}

type noopNotifier struct{}

// NewNoopNotifier is used when SMTP is not configured.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) NotifyNewLead(context.Context, *model.Case) error {
	return nil
}
