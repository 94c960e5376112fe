// Package email - SMTP-рассылка уведомлений маркетплейса.
package email

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Message - одно письмо одному адресату
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
}

// Mailer отправляет письма
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// dialer - часть gomail.Dialer, которую использует SMTPMailer
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer - Mailer поверх gomail
type SMTPMailer struct {
	config *SMTPConfig
	dialer dialer
}

var ErrInvalidMessage = errors.New("email: recipient and subject are required")

func NewSMTPMailer(config *SMTPConfig) *SMTPMailer {
	d := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	return &SMTPMailer{config: config, dialer: d}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if msg == nil || msg.To == "" || msg.Subject == "" {
		return ErrInvalidMessage
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.config.FromEmail, m.config.FromName)
	if msg.ToName != "" {
		gm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		gm.SetHeader("To", msg.To)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}
