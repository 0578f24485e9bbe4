package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// AuthHandler handles tenant staff sign-in
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(res))
}

// Activate handles POST /api/v1/admin/auth/activate
func (h *AuthHandler) Activate(c *gin.Context) {
	var req dto.ActivateRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.authService.Activate(c.Request.Context(), &req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"activated": true}))
}
