package domain

import (
	"time"
)

// EventType selects which template an e-mail is rendered from
type EventType string

const (
	EventOrderCreated     EventType = "order_created"
	EventOrderPaid        EventType = "order_paid"
	EventOrderReminder    EventType = "order_reminder"
	EventTenantActivation EventType = "tenant_activation"
)

// EventTypes lists every known event type
var EventTypes = []EventType{
	EventOrderCreated,
	EventOrderPaid,
	EventOrderReminder,
	EventTenantActivation,
}

// Valid reports whether e is a known event type
func (e EventType) Valid() bool {
	for _, t := range EventTypes {
		if t == e {
			return true
		}
	}
	return false
}

// EmailTemplate is an editable transactional e-mail
type EmailTemplate struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	EventType EventType `json:"event_type"`
	Subject   string    `json:"subject"`
	HTMLBody  string    `json:"html_body"`
	TextBody  string    `json:"text_body,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SMTP encryption modes
const (
	EncryptionNone = "none"
	EncryptionSSL  = "ssl"
	EncryptionTLS  = "tls"
)

// EmailSettings is the single-row mail transport configuration
type EmailSettings struct {
	FromName       string    `json:"from_name"`
	FromEmail      string    `json:"from_email"`
	ReplyTo        string    `json:"reply_to,omitempty"`
	SMTPHost       string    `json:"smtp_host"`
	SMTPPort       int       `json:"smtp_port"`
	SMTPUsername   string    `json:"smtp_username,omitempty"`
	SMTPPassword   string    `json:"smtp_password,omitempty"`
	SMTPEncryption string    `json:"smtp_encryption"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Masked returns a copy safe to show in the panel
func (s EmailSettings) Masked() EmailSettings {
	if s.SMTPPassword != "" {
		s.SMTPPassword = "********"
	}
	return s
}
