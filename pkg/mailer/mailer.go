// Package mailer sends the notification mail the engines enqueue. Every
// message is multipart: plaintext body with an HTML alternative.
package mailer

import (
	"log/slog"

	"github.com/go-mail/mail"
)

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

func NewMailer(logger *slog.Logger, from string, dialer dialer) *Mailer {
	return &Mailer{
		logger: logger,
		from:   from,
		dialer: dialer,
	}
}

type Mailer struct {
	logger *slog.Logger
	from   string
	dialer dialer
}

func (m *Mailer) Send(to, subject, plain, html string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plain)
	msg.AddAlternative("text/html", html)
	return m.dialer.DialAndSend(msg)
}
