package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"ms-meetup/internal/config"
)

// Message is one outgoing mail. ToName may hold any UTF-8 text; it is encoded
// separately from ToEmail.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers messages through one SMTP relay.
type SMTPMailer struct {
	sender func(msgs ...*gomail.Message) error
	from   string
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &SMTPMailer{sender: dialer.DialAndSend, from: cfg.From}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.sender(m.compose(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.ToEmail, err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg Message) *gomail.Message {
	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetAddressHeader("To", msg.ToEmail, msg.ToName)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/html", msg.HTML)
	return message
}
