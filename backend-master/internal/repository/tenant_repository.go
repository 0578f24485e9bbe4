package repository

import (
	"context"
	"time"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

// TenantFilter narrows tenant listings
type TenantFilter struct {
	Page   int
	Limit  int
	Status domain.TenantStatus
	Search string
}

// Onboarding is everything created when a tenant is onboarded
type Onboarding struct {
	Tenant   *domain.Tenant
	Domain   *domain.TenantDomain
	Settings *domain.TenantSettings
	User     *domain.User
	// OrderID links the new tenant to a paid order in the same transaction
	OrderID string
}

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	// Onboard creates tenant, primary domain, settings and admin user atomically
	Onboard(ctx context.Context, o *Onboarding) error
	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	// List retrieves tenants with pagination and filters
	List(ctx context.Context, f TenantFilter) ([]*domain.Tenant, int, error)
	// Update updates a tenant's editable fields
	Update(ctx context.Context, tenant *domain.Tenant) error
	// UpdateStatus flips the tenant status
	UpdateStatus(ctx context.Context, id string, status domain.TenantStatus) error
	// ExistsBySlug checks if a tenant exists with the given slug
	ExistsBySlug(ctx context.Context, slug string) (bool, error)

	// ListDomains returns the tenant's domains, primary first
	ListDomains(ctx context.Context, tenantID string) ([]*domain.TenantDomain, error)
	// DomainExists checks a host name across all tenants
	DomainExists(ctx context.Context, host string) (bool, error)
	// AddDomain adds a non-primary domain
	AddDomain(ctx context.Context, d *domain.TenantDomain) error
	// GetDomain retrieves one of the tenant's domains
	GetDomain(ctx context.Context, tenantID, domainID string) (*domain.TenantDomain, error)
	// DeleteDomain removes one of the tenant's domains
	DeleteDomain(ctx context.Context, tenantID, domainID string) error
	// SetPrimaryDomain unsets every primary flag of the tenant then sets one
	SetPrimaryDomain(ctx context.Context, tenantID, domainID string) error

	// GetSettings retrieves the tenant's branding settings
	GetSettings(ctx context.Context, tenantID string) (*domain.TenantSettings, error)
	// SaveSettings upserts the tenant's branding settings
	SaveSettings(ctx context.Context, s *domain.TenantSettings) error
}

// UserRepository defines the interface for tenant user data access
type UserRepository interface {
	// ListByTenant returns the tenant's users
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.User, error)
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// ExistsByEmail checks if a user exists with the given email
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// SetActivationToken replaces the user's activation token
	SetActivationToken(ctx context.Context, userID, token string, expiresAt time.Time) error
}
