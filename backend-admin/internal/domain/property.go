package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purpose tells whether a listing is for sale or rent
type Purpose string

const (
	PurposeSale Purpose = "sale"
	PurposeRent Purpose = "rent"
)

func (p Purpose) Valid() bool {
	return p == PurposeSale || p == PurposeRent
}

// PropertyStatus is the listing state
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusInactive PropertyStatus = "inactive"
	PropertyStatusSold     PropertyStatus = "sold"
	PropertyStatusRented   PropertyStatus = "rented"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusActive, PropertyStatusInactive, PropertyStatusSold, PropertyStatusRented:
		return true
	}
	return false
}

// Property is a real-estate listing owned by a tenant. Code is unique per
// tenant.
type Property struct {
	ID            string              `json:"id"`
	TenantID      string              `json:"tenant_id"`
	Code          string              `json:"code"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Purpose       Purpose             `json:"purpose"`
	PropertyType  string              `json:"property_type"`
	Status        PropertyStatus      `json:"status"`
	Price         decimal.Decimal     `json:"price"`
	Area          decimal.NullDecimal `json:"area"`
	Bedrooms      int                 `json:"bedrooms"`
	Bathrooms     int                 `json:"bathrooms"`
	ParkingSpaces int                 `json:"parking_spaces"`
	Street        string              `json:"street,omitempty"`
	Number        string              `json:"number,omitempty"`
	Neighborhood  string              `json:"neighborhood,omitempty"`
	City          string              `json:"city,omitempty"`
	State         string              `json:"state,omitempty"`
	PostalCode    string              `json:"postal_code,omitempty"`
	IsFeatured    bool                `json:"is_featured"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// PropertyFilter narrows a property listing
type PropertyFilter struct {
	TenantID string
	Status   PropertyStatus
	Purpose  Purpose
	City     string
	Search   string
	Page     int
	PerPage  int
}

// PropertyImage is an uploaded photo of a property. At most one image per
// property is the cover.
type PropertyImage struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PropertyID  string    `json:"property_id"`
	Filename    string    `json:"filename"`
	Path        string    `json:"-"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	IsCover     bool      `json:"is_cover"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}
