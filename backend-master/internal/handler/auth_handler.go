package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// AuthHandler handles master operator login
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges operator credentials for an access token
// POST /api/v1/master/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}
