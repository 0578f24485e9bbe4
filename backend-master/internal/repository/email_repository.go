package repository

import (
	"context"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

// EmailRepository defines the interface for e-mail template and settings access
type EmailRepository interface {
	ListTemplates(ctx context.Context, event domain.EventType) ([]*domain.EmailTemplate, error)
	GetTemplate(ctx context.Context, id int64) (*domain.EmailTemplate, error)
	// ExistsBySlug checks the slug against every template except excludeID
	ExistsBySlug(ctx context.Context, slug string, excludeID int64) (bool, error)
	CreateTemplate(ctx context.Context, tpl *domain.EmailTemplate) error
	UpdateTemplate(ctx context.Context, tpl *domain.EmailTemplate) error
	DeleteTemplate(ctx context.Context, id int64) error
	// FirstActiveTemplate returns the lowest-id active template for event, or nil
	FirstActiveTemplate(ctx context.Context, event domain.EventType) (*domain.EmailTemplate, error)

	// GetEmailSettings returns the single settings row, or nil when unset
	GetEmailSettings(ctx context.Context) (*domain.EmailSettings, error)
	SaveEmailSettings(ctx context.Context, s *domain.EmailSettings) error
}
