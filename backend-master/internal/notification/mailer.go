package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

var ErrMailNotConfigured = errors.New("mail transport is not configured")

// Message is one outgoing e-mail
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SettingsProvider supplies the current transport settings
type SettingsProvider interface {
	Settings(ctx context.Context) (*domain.EmailSettings, error)
}

// SMTPMailer sends multipart/alternative mail over SMTP using whatever
// settings are current at send time
type SMTPMailer struct {
	settings SettingsProvider
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(settings SettingsProvider) *SMTPMailer {
	return &SMTPMailer{settings: settings}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	settings, err := m.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mail settings: %w", err)
	}
	if settings.SMTPHost == "" || settings.FromEmail == "" {
		return ErrMailNotConfigured
	}

	mm, err := BuildMessage(settings, msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(settings.SMTPHost, ClientOptions(settings)...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// BuildMessage assembles a text part with an HTML alternative
func BuildMessage(settings *domain.EmailSettings, msg *Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.FromFormat(settings.FromName, settings.FromEmail); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := mm.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	if settings.ReplyTo != "" {
		if err := mm.ReplyTo(settings.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to: %w", err)
		}
	}
	mm.Subject(msg.Subject)

	text := msg.Text
	if text == "" {
		text = HTMLToText(msg.HTML)
	}
	mm.SetBodyString(mail.TypeTextPlain, text)
	if msg.HTML != "" {
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return mm, nil
}

// ClientOptions maps stored settings to go-mail client options
func ClientOptions(s *domain.EmailSettings) []mail.Option {
	port := s.SMTPPort
	opts := []mail.Option{}

	switch s.SMTPEncryption {
	case domain.EncryptionSSL:
		if port == 0 {
			port = 465
		}
		opts = append(opts, mail.WithSSL())
	case domain.EncryptionTLS:
		if port == 0 {
			port = 587
		}
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		if port == 0 {
			port = 25
		}
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	opts = append(opts, mail.WithPort(port))

	if s.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.SMTPUsername),
			mail.WithPassword(s.SMTPPassword),
		)
	}
	return opts
}
