package domain

import "time"

// ContactStatus tracks a lead through the tenant's follow-up
type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in_progress"
	ContactStatusClosed     ContactStatus = "closed"
)

func (s ContactStatus) Valid() bool {
	return s == ContactStatusNew || s == ContactStatusInProgress || s == ContactStatusClosed
}

// Contact is a lead left on the tenant's site, optionally about a property
type Contact struct {
	ID         string        `json:"id"`
	TenantID   string        `json:"tenant_id"`
	PropertyID string        `json:"property_id,omitempty"`
	Name       string        `json:"name"`
	Email      string        `json:"email,omitempty"`
	Phone      string        `json:"phone,omitempty"`
	Message    string        `json:"message,omitempty"`
	Status     ContactStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
