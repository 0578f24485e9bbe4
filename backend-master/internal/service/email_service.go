package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
)

// SampleVars fills template previews
func SampleVars(siteName string) notification.Vars {
	return notification.Vars{
		"site_name":       siteName,
		"customer_name":   "Maria Souza",
		"customer_email":  "maria@example.com",
		"user_name":       "Maria Souza",
		"tenant_name":     "Imobiliária Exemplo",
		"order_id":        "00000000-0000-0000-0000-000000000000",
		"plan_code":       "P02_ANUAL",
		"plan_name":       "Plano Anual",
		"amount":          "1.438,80",
		"payment_method":  string(domain.PaymentMethodPix),
		"payment_url":     "https://www.asaas.com/i/exemplo",
		"pix_payload":     "00020126580014br.gov.bcb.pix0136exemplo",
		"boleto_url":      "https://www.asaas.com/b/pdf/exemplo",
		"boleto_line":     "23793.38128 60082.677115 45000.063305 1 99990000143880",
		"reminder_number": 1,
		"activation_url":  "https://painel.imobsites.com.br/admin/activate?token=exemplo",
		"expires_at":      "19/10/2026 10:00",
	}
}

// EmailService manages templates and the mail transport
type EmailService interface {
	ListTemplates(ctx context.Context, event domain.EventType) ([]*domain.EmailTemplate, error)
	GetTemplate(ctx context.Context, id int64) (*domain.EmailTemplate, error)
	CreateTemplate(ctx context.Context, req *dto.EmailTemplateRequest) (*domain.EmailTemplate, error)
	UpdateTemplate(ctx context.Context, id int64, req *dto.EmailTemplateRequest) (*domain.EmailTemplate, error)
	DeleteTemplate(ctx context.Context, id int64) error
	// Preview renders a stored template with sample variables overridden by vars
	Preview(ctx context.Context, id int64, vars map[string]any) (*notification.Rendered, error)

	// GetSettings returns the transport settings with the password masked
	GetSettings(ctx context.Context) (*domain.EmailSettings, error)
	UpdateSettings(ctx context.Context, req *dto.EmailSettingsRequest) (*domain.EmailSettings, error)
	SendTest(ctx context.Context, to string) error
}

type emailService struct {
	repo     repository.EmailRepository
	store    *notification.SettingsStore
	mailer   notification.Mailer
	siteName string
}

// NewEmailService creates a new EmailService
func NewEmailService(
	repo repository.EmailRepository,
	store *notification.SettingsStore,
	mailer notification.Mailer,
	siteName string,
) EmailService {
	return &emailService{repo: repo, store: store, mailer: mailer, siteName: siteName}
}

func (s *emailService) ListTemplates(ctx context.Context, event domain.EventType) ([]*domain.EmailTemplate, error) {
	return s.repo.ListTemplates(ctx, event)
}

func (s *emailService) GetTemplate(ctx context.Context, id int64) (*domain.EmailTemplate, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

func (s *emailService) CreateTemplate(ctx context.Context, req *dto.EmailTemplateRequest) (*domain.EmailTemplate, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsBySlug(ctx, req.Slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTemplateSlugTaken
	}

	t := &domain.EmailTemplate{}
	req.Apply(t)
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *emailService) UpdateTemplate(ctx context.Context, id int64, req *dto.EmailTemplateRequest) (*domain.EmailTemplate, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsBySlug(ctx, req.Slug, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrTemplateSlugTaken
	}

	req.Apply(t)
	t.UpdatedAt = time.Now()
	if err := s.repo.UpdateTemplate(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *emailService) DeleteTemplate(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	return nil
}

func (s *emailService) Preview(ctx context.Context, id int64, vars map[string]any) (*notification.Rendered, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := SampleVars(s.siteName)
	for k, v := range vars {
		merged[k] = v
	}
	rendered := notification.Render(notification.Template{
		Subject:  t.Subject,
		HTMLBody: t.HTMLBody,
		TextBody: t.TextBody,
	}, merged)
	return &rendered, nil
}

func (s *emailService) GetSettings(ctx context.Context) (*domain.EmailSettings, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	masked := settings.Masked()
	return &masked, nil
}

func (s *emailService) UpdateSettings(ctx context.Context, req *dto.EmailSettingsRequest) (*domain.EmailSettings, error) {
	current, err := s.repo.GetEmailSettings(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.Save(ctx, req.ToDomain(current))
	if err != nil {
		return nil, err
	}
	masked := saved.Masked()
	return &masked, nil
}

func (s *emailService) SendTest(ctx context.Context, to string) error {
	rendered := notification.Render(notification.Template{
		Subject:  "{{site_name}}: e-mail de teste",
		HTMLBody: "<p>Este é um e-mail de teste enviado pelo painel {{site_name}}.</p>",
	}, notification.Vars{"site_name": s.siteName})

	err := s.mailer.Send(ctx, &notification.Message{
		To:      to,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}
