package mailer

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/hfiuc/uc-reservation-api/pkg/config"
)

// Attachment is an in-memory file added to an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Mailer sends reservation notification mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New constructs a mailer from SMTP configuration.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single HTML message with optional attachments.
func (m *Mailer) Send(to, subject, htmlBody string, attachments ...Attachment) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	for _, att := range attachments {
		content := att.Content
		msg.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
