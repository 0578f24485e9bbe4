package domain

import (
	"time"
)

// TenantStatus is the lifecycle state of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Valid reports whether s is a known status
func (s TenantStatus) Valid() bool {
	return s == TenantStatusActive || s == TenantStatusSuspended
}

// Tenant represents a customer organization of the platform
type Tenant struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Slug         string       `json:"slug"`
	Status       TenantStatus `json:"status"`
	ContactName  string       `json:"contact_name,omitempty"`
	ContactEmail string       `json:"contact_email,omitempty"`
	ContactPhone string       `json:"contact_phone,omitempty"`
	Document     string       `json:"document,omitempty"`
	Address      Address      `json:"address"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsActive reports whether the tenant may sign in and serve its site
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// Address is a Brazilian postal address
type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// TenantDomain is a host name served for a tenant. Exactly one domain per
// tenant is primary.
type TenantDomain struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Domain    string    `json:"domain"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantSettings holds branding and contact display fields
type TenantSettings struct {
	TenantID       string    `json:"tenant_id"`
	SiteTitle      string    `json:"site_title"`
	LogoURL        string    `json:"logo_url,omitempty"`
	PrimaryColor   string    `json:"primary_color,omitempty"`
	SecondaryColor string    `json:"secondary_color,omitempty"`
	ContactEmail   string    `json:"contact_email,omitempty"`
	ContactPhone   string    `json:"contact_phone,omitempty"`
	WhatsApp       string    `json:"whatsapp,omitempty"`
	Address        string    `json:"address,omitempty"`
	FacebookURL    string    `json:"facebook_url,omitempty"`
	InstagramURL   string    `json:"instagram_url,omitempty"`
	LinkedInURL    string    `json:"linkedin_url,omitempty"`
	YouTubeURL     string    `json:"youtube_url,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is a tenant staff account (table usuarios)
type User struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	IsActive            bool       `json:"is_active"`
	ActivationToken     string     `json:"-"`
	ActivationExpiresAt *time.Time `json:"activation_expires_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// UserRoleAdmin is the role given to the user created at onboarding
const UserRoleAdmin = "admin"

// ActivationTTL is how long an activation link stays valid
const ActivationTTL = 72 * time.Hour

// ActivationPending reports whether the user still has a usable token
func (u *User) ActivationPending(now time.Time) bool {
	return u.ActivationToken != "" && u.ActivationExpiresAt != nil && now.Before(*u.ActivationExpiresAt)
}
