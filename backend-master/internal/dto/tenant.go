package dto

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
)

var (
	slugRegex   = regexp.MustCompile(`^[a-z0-9-]+$`)
	domainRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
	colorRegex  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// AddressRequest is a postal address in a request body
type AddressRequest struct {
	Street       string `json:"street" binding:"omitempty,max=255"`
	Number       string `json:"number" binding:"omitempty,max=20"`
	Complement   string `json:"complement" binding:"omitempty,max=100"`
	Neighborhood string `json:"neighborhood" binding:"omitempty,max=100"`
	City         string `json:"city" binding:"omitempty,max=100"`
	State        string `json:"state" binding:"omitempty,len=2"`
	PostalCode   string `json:"postal_code" binding:"omitempty,max=10"`
}

// ToDomain converts the request to a domain address
func (a AddressRequest) ToDomain() domain.Address {
	return domain.Address{
		Street:       strings.TrimSpace(a.Street),
		Number:       strings.TrimSpace(a.Number),
		Complement:   strings.TrimSpace(a.Complement),
		Neighborhood: strings.TrimSpace(a.Neighborhood),
		City:         strings.TrimSpace(a.City),
		State:        strings.ToUpper(strings.TrimSpace(a.State)),
		PostalCode:   strings.TrimSpace(a.PostalCode),
	}
}

// OnboardTenantRequest creates a tenant with its primary domain, branding
// and first admin user
type OnboardTenantRequest struct {
	Name         string         `json:"name" binding:"required,min=2,max=255"`
	Slug         string         `json:"slug" binding:"required,min=2,max=100"`
	Domain       string         `json:"domain" binding:"required,max=255"`
	ContactName  string         `json:"contact_name" binding:"omitempty,max=255"`
	ContactEmail string         `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string         `json:"contact_phone" binding:"omitempty,max=30"`
	Document     string         `json:"document" binding:"omitempty,max=20"`
	Address      AddressRequest `json:"address"`

	SiteTitle      string `json:"site_title" binding:"omitempty,max=255"`
	LogoURL        string `json:"logo_url" binding:"omitempty,url"`
	PrimaryColor   string `json:"primary_color" binding:"omitempty"`
	SecondaryColor string `json:"secondary_color" binding:"omitempty"`

	AdminName  string `json:"admin_name" binding:"required,min=2,max=255"`
	AdminEmail string `json:"admin_email" binding:"required,email"`
}

// Normalize trims and lowercases identifiers
func (r *OnboardTenantRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	r.Domain = NormalizeDomain(r.Domain)
	r.AdminName = strings.TrimSpace(r.AdminName)
	r.AdminEmail = strings.ToLower(strings.TrimSpace(r.AdminEmail))
	r.ContactEmail = strings.ToLower(strings.TrimSpace(r.ContactEmail))
}

// Validate returns field errors not expressible as binding tags
func (r *OnboardTenantRequest) Validate() map[string]string {
	errs := map[string]string{}
	if ok, msg := ValidateSlug(r.Slug); !ok {
		errs["slug"] = msg
	}
	if !domainRegex.MatchString(r.Domain) {
		errs["domain"] = "Invalid domain name"
	}
	if r.PrimaryColor != "" && !colorRegex.MatchString(r.PrimaryColor) {
		errs["primary_color"] = "Color must be a hex value like #1a2b3c"
	}
	if r.SecondaryColor != "" && !colorRegex.MatchString(r.SecondaryColor) {
		errs["secondary_color"] = "Color must be a hex value like #1a2b3c"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateSlug validates slug format (lowercase alphanumeric and hyphens only)
func ValidateSlug(slug string) (bool, string) {
	if !slugRegex.MatchString(slug) {
		return false, "Slug must contain only lowercase letters, numbers, and hyphens"
	}
	if len(slug) < 2 {
		return false, "Slug must be at least 2 characters"
	}
	if len(slug) > 100 {
		return false, "Slug must not exceed 100 characters"
	}
	return true, ""
}

// NormalizeDomain lowercases a host and drops scheme, path and "www."
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimPrefix(d, "www.")
}

// ValidDomain reports whether d is a plausible host name
func ValidDomain(d string) bool {
	return domainRegex.MatchString(d)
}

// UpdateTenantRequest is the inline edit payload; nil fields are unchanged
type UpdateTenantRequest struct {
	Name         *string         `json:"name"`
	ContactName  *string         `json:"contact_name"`
	ContactEmail *string         `json:"contact_email"`
	ContactPhone *string         `json:"contact_phone"`
	Document     *string         `json:"document"`
	Address      *AddressRequest `json:"address"`
}

// Validate validates the provided fields
func (r *UpdateTenantRequest) Validate() map[string]string {
	errs := map[string]string{}
	if r.Name == nil && r.ContactName == nil && r.ContactEmail == nil && r.ContactPhone == nil &&
		r.Document == nil && r.Address == nil {
		errs["_"] = "At least one field must be provided for update"
	}
	if r.Name != nil && len(strings.TrimSpace(*r.Name)) < 2 {
		errs["name"] = "Name must be at least 2 characters"
	}
	if r.ContactEmail != nil && *r.ContactEmail != "" {
		if _, err := mail.ParseAddress(*r.ContactEmail); err != nil {
			errs["contact_email"] = "Invalid e-mail address"
		}
	}
	if r.Address != nil && r.Address.State != "" && len(strings.TrimSpace(r.Address.State)) != 2 {
		errs["address.state"] = "State must have 2 letters"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Apply copies the provided fields onto t
func (r *UpdateTenantRequest) Apply(t *domain.Tenant) {
	if r.Name != nil {
		t.Name = strings.TrimSpace(*r.Name)
	}
	if r.ContactName != nil {
		t.ContactName = strings.TrimSpace(*r.ContactName)
	}
	if r.ContactEmail != nil {
		t.ContactEmail = strings.ToLower(strings.TrimSpace(*r.ContactEmail))
	}
	if r.ContactPhone != nil {
		t.ContactPhone = strings.TrimSpace(*r.ContactPhone)
	}
	if r.Document != nil {
		t.Document = strings.TrimSpace(*r.Document)
	}
	if r.Address != nil {
		t.Address = r.Address.ToDomain()
	}
}

// ListTenantsQuery represents query parameters for listing tenants
type ListTenantsQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=active suspended"`
	Search string `form:"search" binding:"omitempty,max=255"`
}

// SetDefaults sets default values for query parameters
func (q *ListTenantsQuery) SetDefaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
}

// AddDomainRequest adds a host name to a tenant
type AddDomainRequest struct {
	Domain    string `json:"domain" binding:"required,max=255"`
	IsPrimary bool   `json:"is_primary"`
}

// TenantSettingsRequest replaces the tenant's branding settings
type TenantSettingsRequest struct {
	SiteTitle      string `json:"site_title" binding:"required,max=255"`
	LogoURL        string `json:"logo_url" binding:"omitempty,url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	ContactEmail   string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone   string `json:"contact_phone" binding:"omitempty,max=30"`
	WhatsApp       string `json:"whatsapp" binding:"omitempty,max=30"`
	Address        string `json:"address" binding:"omitempty,max=500"`
	FacebookURL    string `json:"facebook_url" binding:"omitempty,url"`
	InstagramURL   string `json:"instagram_url" binding:"omitempty,url"`
	LinkedInURL    string `json:"linkedin_url" binding:"omitempty,url"`
	YouTubeURL     string `json:"youtube_url" binding:"omitempty,url"`
}

// Validate checks the color fields
func (r *TenantSettingsRequest) Validate() map[string]string {
	errs := map[string]string{}
	if r.PrimaryColor != "" && !colorRegex.MatchString(r.PrimaryColor) {
		errs["primary_color"] = "Color must be a hex value like #1a2b3c"
	}
	if r.SecondaryColor != "" && !colorRegex.MatchString(r.SecondaryColor) {
		errs["secondary_color"] = "Color must be a hex value like #1a2b3c"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ToDomain converts the request for tenantID
func (r *TenantSettingsRequest) ToDomain(tenantID string) *domain.TenantSettings {
	return &domain.TenantSettings{
		TenantID:       tenantID,
		SiteTitle:      strings.TrimSpace(r.SiteTitle),
		LogoURL:        r.LogoURL,
		PrimaryColor:   r.PrimaryColor,
		SecondaryColor: r.SecondaryColor,
		ContactEmail:   r.ContactEmail,
		ContactPhone:   r.ContactPhone,
		WhatsApp:       r.WhatsApp,
		Address:        r.Address,
		FacebookURL:    r.FacebookURL,
		InstagramURL:   r.InstagramURL,
		LinkedInURL:    r.LinkedInURL,
		YouTubeURL:     r.YouTubeURL,
	}
}

// TenantDetailResponse is a tenant with everything it owns
type TenantDetailResponse struct {
	*domain.Tenant
	Domains  []*domain.TenantDomain `json:"domains"`
	Settings *domain.TenantSettings `json:"settings,omitempty"`
	Users    []*domain.User         `json:"users"`
}

// OnboardResponse is returned after onboarding
type OnboardResponse struct {
	Tenant         *domain.Tenant       `json:"tenant"`
	Domain         *domain.TenantDomain `json:"domain"`
	AdminUserID    string               `json:"admin_user_id"`
	ActivationSent bool                 `json:"activation_sent"`
}
