package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// ContactHandler handles the tenant's leads
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// List handles GET /api/v1/admin/contacts
func (h *ContactHandler) List(c *gin.Context) {
	var q dto.ContactListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	contacts, total, err := h.contactService.List(c.Request.Context(), tenantID(c), &q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(contacts, q.Page, q.PerPage, int64(total)))
}

// Get handles GET /api/v1/admin/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	contact, err := h.contactService.Get(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(contact))
}

// Create handles POST /api/v1/admin/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	var req dto.CreateContactRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	contact, err := h.contactService.Create(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetAuditResourceID(c, contact.ID)
	c.JSON(http.StatusCreated, response.Success(contact))
}

// UpdateStatus handles PATCH /api/v1/admin/contacts/:id/status
func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateContactStatusRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	contact, err := h.contactService.UpdateStatus(c.Request.Context(), tenantID(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(contact))
}

// Delete handles DELETE /api/v1/admin/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.contactService.Delete(c.Request.Context(), tenantID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"deleted": true}))
}
