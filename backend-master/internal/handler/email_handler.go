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

// EmailHandler handles e-mail templates and transport settings
type EmailHandler struct {
	emailService service.EmailService
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(emailService service.EmailService) *EmailHandler {
	return &EmailHandler{emailService: emailService}
}

// ListTemplates returns templates, optionally for one event
// GET /api/v1/master/email/templates
func (h *EmailHandler) ListTemplates(c *gin.Context) {
	templates, err := h.emailService.ListTemplates(c.Request.Context(), domain.EventType(c.Query("event_type")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(templates))
}

// GetTemplate returns one template
// GET /api/v1/master/email/templates/:id
func (h *EmailHandler) GetTemplate(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	t, err := h.emailService.GetTemplate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(t))
}

// CreateTemplate stores a new template
// POST /api/v1/master/email/templates
func (h *EmailHandler) CreateTemplate(c *gin.Context) {
	var req dto.EmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	t, err := h.emailService.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(t))
}

// UpdateTemplate replaces a template
// PUT /api/v1/master/email/templates/:id
func (h *EmailHandler) UpdateTemplate(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req dto.EmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	t, err := h.emailService.UpdateTemplate(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(t))
}

// DeleteTemplate removes a template
// DELETE /api/v1/master/email/templates/:id
func (h *EmailHandler) DeleteTemplate(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	if err := h.emailService.DeleteTemplate(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Template deleted successfully"}))
}

// Preview renders a template with sample values. It changes nothing, so
// it is left out of the audit trail.
// POST /api/v1/master/email/templates/:id/preview
func (h *EmailHandler) Preview(c *gin.Context) {
	middleware.SkipAudit(c)

	id, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req dto.PreviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	rendered, err := h.emailService.Preview(c.Request.Context(), id, req.Vars)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(rendered))
}

// GetSettings returns the transport settings with the password masked
// GET /api/v1/master/email/settings
func (h *EmailHandler) GetSettings(c *gin.Context) {
	s, err := h.emailService.GetSettings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(s))
}

// UpdateSettings replaces the transport settings
// PUT /api/v1/master/email/settings
func (h *EmailHandler) UpdateSettings(c *gin.Context) {
	var req dto.EmailSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	s, err := h.emailService.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(s))
}

// SendTest sends a test message through the current settings
// POST /api/v1/master/email/test
func (h *EmailHandler) SendTest(c *gin.Context) {
	var req dto.TestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.emailService.SendTest(c.Request.Context(), req.To); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Test e-mail sent"}))
}
