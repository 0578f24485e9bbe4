package domain

import "time"

// User is a tenant staff account (table usuarios) together with the state
// of its tenant
type User struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	IsActive            bool       `json:"is_active"`
	ActivationExpiresAt *time.Time `json:"-"`
	TenantActive        bool       `json:"-"`
}

// CanSignIn reports whether the account and its tenant are both active
func (u *User) CanSignIn() bool {
	return u.IsActive && u.TenantActive && u.PasswordHash != ""
}

// ActivationExpired reports whether the activation link is past its deadline
func (u *User) ActivationExpired(now time.Time) bool {
	return u.ActivationExpiresAt == nil || !now.Before(*u.ActivationExpiresAt)
}
