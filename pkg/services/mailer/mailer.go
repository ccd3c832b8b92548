package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/de-tools/report-atlas/pkg/models/domain"
)

// Sender delivers a composed message.
type Sender interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg *mail.Msg) error

func (f SenderFunc) Send(ctx context.Context, msg *mail.Msg) error {
	return f(ctx, msg)
}

func DefaultSMTPSettings() domain.SMTPSettings {
	return domain.SMTPSettings{
		Host:    "localhost",
		Port:    25,
		TLS:     domain.TLSOpportunistic,
		Timeout: 30 * time.Second,
	}
}

// SMTP sends each message over its own connection to the relay.
type SMTP struct {
	settings domain.SMTPSettings
}

func NewSMTP(settings domain.SMTPSettings) *SMTP {
	d := DefaultSMTPSettings()
	if settings.Host == "" {
		settings.Host = d.Host
	}
	if settings.Port == 0 {
		settings.Port = d.Port
	}
	if settings.TLS == "" {
		settings.TLS = d.TLS
	}
	if settings.Timeout == 0 {
		settings.Timeout = d.Timeout
	}
	return &SMTP{settings: settings}
}

func (s *SMTP) Settings() domain.SMTPSettings {
	return s.settings
}

func (s *SMTP) Send(ctx context.Context, msg *mail.Msg) error {
	opts, err := s.clientOptions()
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.settings.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client for %s: %w", s.settings.Host, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("host", s.settings.Host).
		Int("port", s.settings.Port).
		Str("tls", string(s.settings.TLS)).
		Msg("sending message")

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send via %s:%d: %w", s.settings.Host, s.settings.Port, err)
	}
	return nil
}

func (s *SMTP) clientOptions() ([]mail.Option, error) {
	policy, err := tlsPolicy(s.settings.TLS)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(s.settings.Port),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(s.settings.Timeout),
	}
	if s.settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.settings.Username),
			mail.WithPassword(s.settings.Password),
		)
	}
	return opts, nil
}

func tlsPolicy(p domain.TLSPolicy) (mail.TLSPolicy, error) {
	switch p {
	case domain.TLSOpportunistic, "":
		return mail.TLSOpportunistic, nil
	case domain.TLSMandatory:
		return mail.TLSMandatory, nil
	case domain.TLSNone:
		return mail.NoTLS, nil
	default:
		return mail.NoTLS, fmt.Errorf("unknown tls policy %q", p)
	}
}
