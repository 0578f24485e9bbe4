package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// TenantHandler handles tenant management HTTP requests
type TenantHandler struct {
	tenantService service.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// List handles retrieving tenants with pagination
// GET /api/v1/master/tenants
func (h *TenantHandler) List(c *gin.Context) {
	var query dto.ListTenantsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	tenants, total, err := h.tenantService.List(c.Request.Context(), &query)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(tenants, query.Page, query.Limit, int64(total)))
}

// Get handles retrieving a tenant with its domains, settings and users
// GET /api/v1/master/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}

	result, err := h.tenantService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Onboard handles tenant creation
// POST /api/v1/master/tenants
func (h *TenantHandler) Onboard(c *gin.Context) {
	var req dto.OnboardTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.tenantService.Onboard(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuditResourceID(c, result.Tenant.ID)
	c.JSON(http.StatusCreated, response.Success(result))
}

// Update handles inline edits of the tenant's contact fields
// PATCH /api/v1/master/tenants/:id
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}

	var req dto.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.tenantService.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Suspend blocks the tenant's site and admin panel
// POST /api/v1/master/tenants/:id/suspend
func (h *TenantHandler) Suspend(c *gin.Context) {
	h.setStatus(c, domain.TenantStatusSuspended)
}

// Activate lifts a suspension
// POST /api/v1/master/tenants/:id/activate
func (h *TenantHandler) Activate(c *gin.Context) {
	h.setStatus(c, domain.TenantStatusActive)
}

func (h *TenantHandler) setStatus(c *gin.Context, status domain.TenantStatus) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}

	tenant, warning, err := h.tenantService.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuditMetadata(c, map[string]interface{}{"status": string(status)})
	if warning != "" {
		c.JSON(http.StatusOK, response.SuccessWithWarning(tenant, warning))
		return
	}
	c.JSON(http.StatusOK, response.Success(tenant))
}

// AddDomain attaches a host name to the tenant
// POST /api/v1/master/tenants/:id/domains
func (h *TenantHandler) AddDomain(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}

	var req dto.AddDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.tenantService.AddDomain(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(result))
}

// RemoveDomain detaches a non-primary host name
// DELETE /api/v1/master/tenants/:id/domains/:domainId
func (h *TenantHandler) RemoveDomain(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}
	domainID, ok := requireParam(c, "domainId", "Domain ID")
	if !ok {
		return
	}

	if err := h.tenantService.RemoveDomain(c.Request.Context(), id, domainID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Domain removed successfully"}))
}

// SetPrimaryDomain makes a domain the tenant's primary host
// POST /api/v1/master/tenants/:id/domains/:domainId/primary
func (h *TenantHandler) SetPrimaryDomain(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}
	domainID, ok := requireParam(c, "domainId", "Domain ID")
	if !ok {
		return
	}

	if err := h.tenantService.SetPrimaryDomain(c.Request.Context(), id, domainID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Primary domain updated"}))
}

// GetSettings returns the tenant's site settings
// GET /api/v1/master/tenants/:id/settings
func (h *TenantHandler) GetSettings(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}

	result, err := h.tenantService.GetSettings(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// UpdateSettings replaces the tenant's site settings
// PUT /api/v1/master/tenants/:id/settings
func (h *TenantHandler) UpdateSettings(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}

	var req dto.TenantSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.tenantService.UpdateSettings(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// ResendActivation e-mails a new activation link to an inactive admin
// POST /api/v1/master/tenants/:id/users/:userId/resend-activation
func (h *TenantHandler) ResendActivation(c *gin.Context) {
	id, ok := requireParam(c, "id", "Tenant ID")
	if !ok {
		return
	}
	userID, ok := requireParam(c, "userId", "User ID")
	if !ok {
		return
	}

	if err := h.tenantService.ResendActivation(c.Request.Context(), id, userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Activation e-mail sent"}))
}
