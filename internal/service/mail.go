// Package service contains the outbound mail plumbing of the application
package service

import (
	"bitwise74/diapredict/config"
	"bitwise74/diapredict/internal/metrics"
	"context"
	"crypto/tls"
	"errors"

	"gopkg.in/gomail.v2"
)

var ErrInvalidRecipient = errors.New("invalid email address")

type Mail struct {
	// Kind labels the mail in logs and metrics, it's never sent
	Kind    string
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Sender delivers a single mail
type Sender interface {
	Send(ctx context.Context, m *Mail) error
}

type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	// Implicit TLS, usually on port 465. Without it gomail always upgrades
	// with STARTTLS when the server offers it, so the same config applies.
	d.SSL = cfg.UseSSL
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	return &SMTPSender{
		from:   cfg.Sender,
		dialer: d,
	}
}

func (s *SMTPSender) Send(ctx context.Context, m *Mail) error {
	if m.To == "" {
		return ErrInvalidRecipient
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)

	contentType := "text/plain"
	if m.HTML {
		contentType = "text/html"
	}
	msg.SetBody(contentType, m.Body)

	return s.dialer.DialAndSend(msg)
}

// MeteredSender counts delivered and failed mails by kind
type MeteredSender struct {
	Next Sender
}

func (s *MeteredSender) Send(ctx context.Context, m *Mail) error {
	if err := s.Next.Send(ctx, m); err != nil {
		metrics.EmailsFailed.WithLabelValues(m.Kind).Inc()
		return err
	}

	metrics.EmailsSent.WithLabelValues(m.Kind).Inc()
	return nil
}
