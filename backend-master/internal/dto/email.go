package dto

import (
	"strings"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

// EmailTemplateRequest creates or replaces a template
type EmailTemplateRequest struct {
	Slug      string `json:"slug" binding:"required,min=2,max=100"`
	Name      string `json:"name" binding:"required,max=255"`
	EventType string `json:"event_type" binding:"required"`
	Subject   string `json:"subject" binding:"required,max=255"`
	HTMLBody  string `json:"html_body" binding:"required"`
	TextBody  string `json:"text_body"`
	IsActive  *bool  `json:"is_active"`
}

// Validate checks the slug and event type
func (r *EmailTemplateRequest) Validate() map[string]string {
	errs := map[string]string{}
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	if ok, msg := ValidateSlug(r.Slug); !ok {
		errs["slug"] = msg
	}
	if !domain.EventType(r.EventType).Valid() {
		errs["event_type"] = "Unknown event type"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Apply copies the request onto t
func (r *EmailTemplateRequest) Apply(t *domain.EmailTemplate) {
	t.Slug = r.Slug
	t.Name = strings.TrimSpace(r.Name)
	t.EventType = domain.EventType(r.EventType)
	t.Subject = r.Subject
	t.HTMLBody = r.HTMLBody
	t.TextBody = r.TextBody
	t.IsActive = r.IsActive == nil || *r.IsActive
}

// PreviewRequest renders a template with sample variables
type PreviewRequest struct {
	Vars map[string]any `json:"vars"`
}

// EmailSettingsRequest replaces the mail transport settings. An empty
// password keeps the stored one.
type EmailSettingsRequest struct {
	FromName       string `json:"from_name" binding:"required,max=255"`
	FromEmail      string `json:"from_email" binding:"required,email"`
	ReplyTo        string `json:"reply_to" binding:"omitempty,email"`
	SMTPHost       string `json:"smtp_host" binding:"required,max=255"`
	SMTPPort       int    `json:"smtp_port" binding:"required,min=1,max=65535"`
	SMTPUsername   string `json:"smtp_username" binding:"omitempty,max=255"`
	SMTPPassword   string `json:"smtp_password" binding:"omitempty,max=255"`
	SMTPEncryption string `json:"smtp_encryption" binding:"required,oneof=none ssl tls"`
}

// ToDomain converts the request, keeping current's password when blank
func (r *EmailSettingsRequest) ToDomain(current *domain.EmailSettings) *domain.EmailSettings {
	s := &domain.EmailSettings{
		FromName:       strings.TrimSpace(r.FromName),
		FromEmail:      strings.TrimSpace(r.FromEmail),
		ReplyTo:        strings.TrimSpace(r.ReplyTo),
		SMTPHost:       strings.TrimSpace(r.SMTPHost),
		SMTPPort:       r.SMTPPort,
		SMTPUsername:   r.SMTPUsername,
		SMTPPassword:   r.SMTPPassword,
		SMTPEncryption: r.SMTPEncryption,
	}
	if s.SMTPPassword == "" && current != nil {
		s.SMTPPassword = current.SMTPPassword
	}
	return s
}

// TestEmailRequest sends a test message
type TestEmailRequest struct {
	To string `json:"to" binding:"required,email"`
}
