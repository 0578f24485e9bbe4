package dto

// CreateContactRequest registers a lead by hand
type CreateContactRequest struct {
	PropertyID string `json:"property_id" form:"property_id" binding:"omitempty,uuid"`
	Name       string `json:"name" form:"name" binding:"required,max=255"`
	Email      string `json:"email" form:"email" binding:"omitempty,email,max=255"`
	Phone      string `json:"phone" form:"phone" binding:"omitempty,max=30"`
	Message    string `json:"message" form:"message"`
}

// UpdateContactStatusRequest moves a lead along
type UpdateContactStatusRequest struct {
	Status string `json:"status" form:"status" binding:"required"`
}

// ContactListQuery holds the contact list filters
type ContactListQuery struct {
	Status  string `form:"status"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}

// Normalize applies paging defaults
func (q *ContactListQuery) Normalize() {
	q.Page, q.PerPage = normalizePage(q.Page, q.PerPage)
}
