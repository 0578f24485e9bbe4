package dto

// PropertyRequest is the property editor payload. Numbers arrive as typed
// by the user, so price and area accept Brazilian formatting.
type PropertyRequest struct {
	Code          string `json:"code" form:"code"`
	Title         string `json:"title" form:"title"`
	Description   string `json:"description" form:"description"`
	Purpose       string `json:"purpose" form:"purpose"`
	PropertyType  string `json:"property_type" form:"property_type"`
	Status        string `json:"status" form:"status"`
	Price         string `json:"price" form:"price"`
	Area          string `json:"area" form:"area"`
	Bedrooms      int    `json:"bedrooms" form:"bedrooms"`
	Bathrooms     int    `json:"bathrooms" form:"bathrooms"`
	ParkingSpaces int    `json:"parking_spaces" form:"parking_spaces"`
	Street        string `json:"street" form:"street"`
	Number        string `json:"number" form:"number"`
	Neighborhood  string `json:"neighborhood" form:"neighborhood"`
	City          string `json:"city" form:"city"`
	State         string `json:"state" form:"state"`
	PostalCode    string `json:"postal_code" form:"postal_code"`
	IsFeatured    bool   `json:"is_featured" form:"is_featured"`
}

// PropertyListQuery holds the property list filters
type PropertyListQuery struct {
	Status  string `form:"status"`
	Purpose string `form:"purpose"`
	City    string `form:"city"`
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}

// Normalize applies paging defaults
func (q *PropertyListQuery) Normalize() {
	q.Page, q.PerPage = normalizePage(q.Page, q.PerPage)
}

// NeighborhoodQuery is the AJAX lookup input
type NeighborhoodQuery struct {
	City string `form:"city" binding:"required"`
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
