// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Transport delivers a composed message.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// SMTPConfig describes the relay and sender identity.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// DisplayFrom is the From header, e.g. "Passage <noreply@passage.app>".
	// Username is used when empty.
	DisplayFrom string
	// Timeout bounds dialing and each SMTP command. Defaults to 30s.
	Timeout time.Duration
}

const defaultSMTPTimeout = 30 * time.Second

// implicitTLSPort is the submission port that expects TLS from the first byte.
const implicitTLSPort = 465

type sendFunc func(ctx context.Context, msg *gomail.Msg) error

// SMTPTransport delivers mail through an authenticated SMTP relay.
// The envelope sender is the account username so bounces reach the polled inbox.
type SMTPTransport struct {
	from     string
	envelope string
	send     sendFunc
}

// NewSMTPTransport validates cfg and builds a transport.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, fmt.Errorf("mailer: smtp host and username are required")
	}

	from := cfg.DisplayFrom
	if from == "" {
		from = cfg.Username
	}
	if err := gomail.NewMsg().From(from); err != nil {
		return nil, fmt.Errorf("mailer: invalid display from %q: %w", from, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(timeout),
	}
	if cfg.Port == implicitTLSPort {
		opts = append(opts, gomail.WithSSL())
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: smtp client: %w", err)
	}

	return &SMTPTransport{
		from:     from,
		envelope: cfg.Username,
		send: func(ctx context.Context, msg *gomail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

// Deliver implements [Transport]. The dial and the SMTP session both stop
// when ctx is done.
func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	m, err := t.build(msg)
	if err != nil {
		return err
	}

	if err := t.send(ctx, m); err != nil {
		return rejectionFrom(msg.To, err)
	}
	return nil
}

func (t *SMTPTransport) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(t.from); err != nil {
		return nil, fmt.Errorf("mailer: invalid display from %q: %w", t.from, err)
	}
	if err := m.EnvelopeFrom(t.envelope); err != nil {
		return nil, fmt.Errorf("mailer: invalid envelope sender %q: %w", t.envelope, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipient %q: %w", msg.To, err)
	}

	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return m, nil
}

// LogTransport records messages instead of sending them. It is used when
// SMTP is not configured, typically in development.
type LogTransport struct {
	Logger *slog.Logger
}

// Deliver implements [Transport].
func (t LogTransport) Deliver(ctx context.Context, msg Message) error {
	t.Logger.InfoContext(ctx, "mail_transport_disabled",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
