package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// PropertyHandler handles the tenant's listings
type PropertyHandler struct {
	propertyService service.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler
func NewPropertyHandler(propertyService service.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

// List handles GET /api/v1/admin/properties
func (h *PropertyHandler) List(c *gin.Context) {
	var q dto.PropertyListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	props, total, err := h.propertyService.List(c.Request.Context(), tenantID(c), &q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(props, q.Page, q.PerPage, int64(total)))
}

// Get handles GET /api/v1/admin/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	p, err := h.propertyService.Get(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(p))
}

// Create handles POST /api/v1/admin/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	var req dto.PropertyRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.propertyService.Create(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetAuditResourceID(c, p.ID)
	c.JSON(http.StatusCreated, response.Success(p))
}

// Update handles PUT /api/v1/admin/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	var req dto.PropertyRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.propertyService.Update(c.Request.Context(), tenantID(c), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(p))
}

// Delete handles DELETE /api/v1/admin/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	if err := h.propertyService.Delete(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"deleted": true}))
}

// Neighborhoods handles GET /api/v1/admin/ajax/neighborhoods?city=
func (h *PropertyHandler) Neighborhoods(c *gin.Context) {
	var q dto.NeighborhoodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	list, err := h.propertyService.Neighborhoods(c.Request.Context(), tenantID(c), q.City)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(list))
}
