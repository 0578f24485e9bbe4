package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/repository"
)

// ContactService manages the tenant's leads
type ContactService interface {
	List(ctx context.Context, tenantID string, q *dto.ContactListQuery) ([]*domain.Contact, int, error)
	Get(ctx context.Context, tenantID, id string) (*domain.Contact, error)
	Create(ctx context.Context, tenantID string, req *dto.CreateContactRequest) (*domain.Contact, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status string) (*domain.Contact, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type contactService struct {
	contacts repository.ContactRepository
	props    repository.PropertyRepository
}

// NewContactService creates a new ContactService
func NewContactService(contacts repository.ContactRepository, props repository.PropertyRepository) ContactService {
	return &contactService{contacts: contacts, props: props}
}

func (s *contactService) List(ctx context.Context, tenantID string, q *dto.ContactListQuery) ([]*domain.Contact, int, error) {
	q.Normalize()
	status := domain.ContactStatus(q.Status)
	if status != "" && !status.Valid() {
		return nil, 0, NewValidationError(map[string]string{"status": "is invalid"})
	}
	return s.contacts.List(ctx, tenantID, status, q.Page, q.PerPage)
}

func (s *contactService) Get(ctx context.Context, tenantID, id string) (*domain.Contact, error) {
	c, err := s.contacts.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrContactNotFound
	}
	return c, nil
}

func (s *contactService) Create(ctx context.Context, tenantID string, req *dto.CreateContactRequest) (*domain.Contact, error) {
	if req.PropertyID != "" {
		p, err := s.props.GetByID(ctx, tenantID, req.PropertyID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrPropertyNotFound
		}
	}

	now := time.Now()
	c := &domain.Contact{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		PropertyID: req.PropertyID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      strings.TrimSpace(req.Phone),
		Message:    strings.TrimSpace(req.Message),
		Status:     domain.ContactStatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.Name == "" {
		return nil, NewValidationError(map[string]string{"name": "is required"})
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contactService) UpdateStatus(ctx context.Context, tenantID, id string, status string) (*domain.Contact, error) {
	st := domain.ContactStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, NewValidationError(map[string]string{"status": "must be new, in_progress or closed"})
	}
	if err := s.contacts.UpdateStatus(ctx, tenantID, id, st); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return s.Get(ctx, tenantID, id)
}

func (s *contactService) Delete(ctx context.Context, tenantID, id string) error {
	if err := s.contacts.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContactNotFound
		}
		return err
	}
	return nil
}
