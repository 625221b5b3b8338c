package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ilift/ilift-backend/pkg/config"
	"gopkg.in/gomail.v2"
)

// Message is a single outbound HTML email.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers messages to an SMTP relay.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through gomail.
type SMTPMailer struct {
	dialer dialer
	from   string
}

// New builds an SMTP mailer from config.
func New(cfg config.MailConfig) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("mail from address is required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

func newWithDialer(d dialer, from string) *SMTPMailer {
	return &SMTPMailer{dialer: d, from: from}
}

// Send builds the gomail message and dials the relay. The context is only
// checked before dialing; gomail has no cancellation hook.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m == nil || m.dialer == nil {
		return fmt.Errorf("mailer not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := cleanAddresses(msg.To)
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}

	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", recipients...)
	if reply := strings.TrimSpace(msg.ReplyTo); reply != "" {
		out.SetHeader("Reply-To", reply)
	}
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(out); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func cleanAddresses(in []string) []string {
	out := make([]string, 0, len(in))
	for _, addr := range in {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
