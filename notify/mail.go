// Package notify tells the site owner about new contact messages.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/CorrelAid/contact_form_guard/config"
	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/wneessen/go-mail"
)

// Notifier is told about every stored contact.
type Notifier interface {
	ContactReceived(ctx context.Context, contact models.Contact) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) ContactReceived(context.Context, models.Contact) error { return nil }

// Mailer sends a plain text mail per contact over SMTP.
type Mailer struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

// New returns a Mailer, or Nop when no SMTP host is configured.
func New(cfg config.SMTPConfig) Notifier {
	if cfg.Host == "" {
		return Nop{}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg, timeout: 30 * time.Second}
}

// Compose builds the notification message for contact.
func (m *Mailer) Compose(contact models.Contact) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("notify: invalid from address: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return nil, fmt.Errorf("notify: invalid to address: %w", err)
	}
	if err := msg.ReplyTo(contact.Email); err != nil {
		return nil, fmt.Errorf("notify: invalid reply-to address: %w", err)
	}
	msg.Subject("New contact message from " + contact.Name)
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Name: %s\nEmail: %s\nReceived: %s\n\n%s\n",
		contact.Name, contact.Email, contact.CreatedAt.Format(time.RFC1123), contact.Message,
	))
	return msg, nil
}

func (m *Mailer) ContactReceived(ctx context.Context, contact models.Contact) error {
	msg, err := m.Compose(contact)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("notify: failed to create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: failed to send: %w", err)
	}
	return nil
}
