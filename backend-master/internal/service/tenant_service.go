package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/database"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/logger"
)

// TenantService defines the interface for tenant management operations
type TenantService interface {
	// List retrieves tenants with pagination and filters
	List(ctx context.Context, query *dto.ListTenantsQuery) ([]*domain.Tenant, int, error)
	// Get returns a tenant with its domains, settings and users
	Get(ctx context.Context, id string) (*dto.TenantDetailResponse, error)
	// Onboard creates tenant, primary domain, settings and admin user
	Onboard(ctx context.Context, req *dto.OnboardTenantRequest) (*dto.OnboardResponse, error)
	// OnboardFromOrder onboards and links the tenant to a paid order
	OnboardFromOrder(ctx context.Context, req *dto.OnboardTenantRequest, orderID string) (*dto.OnboardResponse, error)
	// Update edits the tenant's contact fields
	Update(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*domain.Tenant, error)
	// SetStatus suspends or activates a tenant. The returned warning is set
	// when the tenant already had that status.
	SetStatus(ctx context.Context, id string, status domain.TenantStatus) (*domain.Tenant, string, error)

	AddDomain(ctx context.Context, tenantID string, req *dto.AddDomainRequest) (*domain.TenantDomain, error)
	RemoveDomain(ctx context.Context, tenantID, domainID string) error
	SetPrimaryDomain(ctx context.Context, tenantID, domainID string) error

	GetSettings(ctx context.Context, tenantID string) (*domain.TenantSettings, error)
	UpdateSettings(ctx context.Context, tenantID string, req *dto.TenantSettingsRequest) (*domain.TenantSettings, error)

	// ResendActivation issues a fresh activation token and e-mails it
	ResendActivation(ctx context.Context, tenantID, userID string) error
}

// tenantService implements TenantService
type tenantService struct {
	tenantRepo repository.TenantRepository
	userRepo   repository.UserRepository
	mailer     EmailSender
	publisher  kafka.Publisher
	publicURL  string
	now        func() time.Time
}

// NewTenantService creates a new TenantService
func NewTenantService(
	tenantRepo repository.TenantRepository,
	userRepo repository.UserRepository,
	mailer EmailSender,
	publisher kafka.Publisher,
	publicURL string,
) TenantService {
	return &tenantService{
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		mailer:     mailer,
		publisher:  publisher,
		publicURL:  strings.TrimRight(publicURL, "/"),
		now:        time.Now,
	}
}

// NewActivationToken returns 64 hex characters from two random UUIDs
func NewActivationToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func (s *tenantService) List(ctx context.Context, query *dto.ListTenantsQuery) ([]*domain.Tenant, int, error) {
	query.SetDefaults()
	return s.tenantRepo.List(ctx, repository.TenantFilter{
		Page:   query.Page,
		Limit:  query.Limit,
		Status: domain.TenantStatus(query.Status),
		Search: strings.TrimSpace(query.Search),
	})
}

func (s *tenantService) mustGet(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

func (s *tenantService) Get(ctx context.Context, id string) (*dto.TenantDetailResponse, error) {
	tenant, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	domains, err := s.tenantRepo.ListDomains(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.tenantRepo.GetSettings(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.TenantDetailResponse{Tenant: tenant, Domains: domains, Settings: settings, Users: users}, nil
}

func (s *tenantService) Onboard(ctx context.Context, req *dto.OnboardTenantRequest) (*dto.OnboardResponse, error) {
	return s.onboard(ctx, req, "")
}

func (s *tenantService) OnboardFromOrder(ctx context.Context, req *dto.OnboardTenantRequest, orderID string) (*dto.OnboardResponse, error) {
	return s.onboard(ctx, req, orderID)
}

func (s *tenantService) onboard(ctx context.Context, req *dto.OnboardTenantRequest, orderID string) (*dto.OnboardResponse, error) {
	req.Normalize()
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	exists, err := s.tenantRepo.ExistsBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTenantAlreadyExists
	}
	if taken, err := s.tenantRepo.DomainExists(ctx, req.Domain); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrDomainTaken
	}
	if taken, err := s.userRepo.ExistsByEmail(ctx, req.AdminEmail); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	now := s.now()
	expires := now.Add(domain.ActivationTTL)
	tenant := &domain.Tenant{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Slug:         req.Slug,
		Status:       domain.TenantStatusActive,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Document:     req.Document,
		Address:      req.Address.ToDomain(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	siteTitle := req.SiteTitle
	if siteTitle == "" {
		siteTitle = req.Name
	}
	ob := &repository.Onboarding{
		Tenant: tenant,
		Domain: &domain.TenantDomain{
			ID:        uuid.New().String(),
			TenantID:  tenant.ID,
			Domain:    req.Domain,
			IsPrimary: true,
			CreatedAt: now,
		},
		Settings: &domain.TenantSettings{
			TenantID:       tenant.ID,
			SiteTitle:      siteTitle,
			LogoURL:        req.LogoURL,
			PrimaryColor:   req.PrimaryColor,
			SecondaryColor: req.SecondaryColor,
			ContactEmail:   req.ContactEmail,
			ContactPhone:   req.ContactPhone,
		},
		User: &domain.User{
			ID:                  uuid.New().String(),
			TenantID:            tenant.ID,
			Name:                req.AdminName,
			Email:               req.AdminEmail,
			Role:                domain.UserRoleAdmin,
			IsActive:            false,
			ActivationToken:     NewActivationToken(),
			ActivationExpiresAt: &expires,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		OrderID: orderID,
	}

	if err := s.tenantRepo.Onboard(ctx, ob); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotAttachable):
			return nil, ErrOrderHasTenant
		case database.IsUniqueViolation(err, "tenants_slug_key"):
			return nil, ErrTenantAlreadyExists
		case database.IsUniqueViolation(err, "tenant_domains_domain_key"):
			return nil, ErrDomainTaken
		case database.IsUniqueViolation(err, "usuarios_email_key"):
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.Get().WithContext(ctx).Info("tenant onboarded",
		zap.String("tenant_id", tenant.ID),
		zap.String("slug", tenant.Slug),
		zap.String("order_id", orderID),
	)

	sent := s.sendActivation(ctx, tenant, ob.User)
	publish(ctx, s.publisher, dto.TopicTenantEvents, &dto.TenantEvent{
		EventType: dto.EventTenantOnboarded,
		TenantID:  tenant.ID,
		Slug:      tenant.Slug,
		Status:    tenant.Status,
		Domain:    ob.Domain.Domain,
		OrderID:   orderID,
		Timestamp: now.UTC(),
	})

	return &dto.OnboardResponse{
		Tenant:         tenant,
		Domain:         ob.Domain,
		AdminUserID:    ob.User.ID,
		ActivationSent: sent,
	}, nil
}

// activationURL is where the admin panel consumes the token
func (s *tenantService) activationURL(token string) string {
	return s.publicURL + "/admin/activate?token=" + token
}

func (s *tenantService) sendActivation(ctx context.Context, tenant *domain.Tenant, user *domain.User) bool {
	return notify(ctx, s.mailer, domain.EventTenantActivation, user.Email, user.Name, notification.Vars{
		"user_name":      user.Name,
		"tenant_name":    tenant.Name,
		"activation_url": s.activationURL(user.ActivationToken),
		"expires_at":     user.ActivationExpiresAt.Format("02/01/2006 15:04"),
	})
}

func (s *tenantService) Update(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*domain.Tenant, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	tenant, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(tenant)
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *tenantService) SetStatus(ctx context.Context, id string, status domain.TenantStatus) (*domain.Tenant, string, error) {
	tenant, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if tenant.Status == status {
		if status == domain.TenantStatusActive {
			return tenant, WarnTenantAlreadyActive, nil
		}
		return tenant, WarnTenantAlreadySusp, nil
	}
	if err := s.tenantRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, "", err
	}
	tenant.Status = status
	tenant.UpdatedAt = s.now()

	eventType := dto.EventTenantActivated
	if status == domain.TenantStatusSuspended {
		eventType = dto.EventTenantSuspended
	}
	publish(ctx, s.publisher, dto.TopicTenantEvents, &dto.TenantEvent{
		EventType: eventType,
		TenantID:  tenant.ID,
		Slug:      tenant.Slug,
		Status:    status,
		Timestamp: tenant.UpdatedAt.UTC(),
	})
	return tenant, "", nil
}

func (s *tenantService) AddDomain(ctx context.Context, tenantID string, req *dto.AddDomainRequest) (*domain.TenantDomain, error) {
	host := dto.NormalizeDomain(req.Domain)
	if !dto.ValidDomain(host) {
		return nil, NewValidationError(map[string]string{"domain": "Invalid domain name"})
	}
	if _, err := s.mustGet(ctx, tenantID); err != nil {
		return nil, err
	}
	taken, err := s.tenantRepo.DomainExists(ctx, host)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDomainTaken
	}

	d := &domain.TenantDomain{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Domain:    host,
		CreatedAt: s.now(),
	}
	if err := s.tenantRepo.AddDomain(ctx, d); err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, ErrDomainTaken
		}
		return nil, err
	}
	if req.IsPrimary {
		if err := s.tenantRepo.SetPrimaryDomain(ctx, tenantID, d.ID); err != nil {
			return nil, err
		}
		d.IsPrimary = true
	}
	return d, nil
}

func (s *tenantService) RemoveDomain(ctx context.Context, tenantID, domainID string) error {
	d, err := s.tenantRepo.GetDomain(ctx, tenantID, domainID)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDomainNotFound
	}
	if d.IsPrimary {
		return ErrPrimaryDomain
	}
	if err := s.tenantRepo.DeleteDomain(ctx, tenantID, domainID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDomainNotFound
		}
		return err
	}
	return nil
}

func (s *tenantService) SetPrimaryDomain(ctx context.Context, tenantID, domainID string) error {
	if err := s.tenantRepo.SetPrimaryDomain(ctx, tenantID, domainID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDomainNotFound
		}
		return err
	}
	return nil
}

func (s *tenantService) GetSettings(ctx context.Context, tenantID string) (*domain.TenantSettings, error) {
	tenant, err := s.mustGet(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	settings, err := s.tenantRepo.GetSettings(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &domain.TenantSettings{TenantID: tenantID, SiteTitle: tenant.Name}
	}
	return settings, nil
}

func (s *tenantService) UpdateSettings(ctx context.Context, tenantID string, req *dto.TenantSettingsRequest) (*domain.TenantSettings, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	if _, err := s.mustGet(ctx, tenantID); err != nil {
		return nil, err
	}
	settings := req.ToDomain(tenantID)
	if err := s.tenantRepo.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *tenantService) ResendActivation(ctx context.Context, tenantID, userID string) error {
	tenant, err := s.mustGet(ctx, tenantID)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.TenantID != tenantID {
		return ErrUserNotFound
	}
	if user.IsActive && user.PasswordHash != "" {
		return ErrUserAlreadyActive
	}

	expires := s.now().Add(domain.ActivationTTL)
	user.ActivationToken = NewActivationToken()
	user.ActivationExpiresAt = &expires
	if err := s.userRepo.SetActivationToken(ctx, user.ID, user.ActivationToken, expires); err != nil {
		return err
	}
	if !s.sendActivation(ctx, tenant, user) {
		return errors.New("failed to send activation e-mail")
	}
	return nil
}
