package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{service.ErrPropertyNotFound, http.StatusNotFound, response.ErrCodeNotFound},
	{service.ErrContactNotFound, http.StatusNotFound, response.ErrCodeNotFound},
	{service.ErrImageNotFound, http.StatusNotFound, response.ErrCodeNotFound},

	{service.ErrPropertyCodeTaken, http.StatusConflict, response.ErrCodeDuplicateEntry},

	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrCodeUnauthorized},
	{service.ErrInvalidActivation, http.StatusBadRequest, response.ErrCodeBadRequest},
	{service.ErrActivationExpired, http.StatusGone, response.ErrCodeActivationGone},

	{service.ErrImageTooLarge, http.StatusRequestEntityTooLarge, response.ErrCodePayloadTooLarge},
	{service.ErrUnsupportedImage, http.StatusUnsupportedMediaType, response.ErrCodeUnsupportedMedia},
	{service.ErrEmptyUpload, http.StatusBadRequest, response.ErrCodeBadRequest},
}

func validationStatus(c *gin.Context) (int, string) {
	if middleware.IsAJAX(c) {
		return http.StatusUnprocessableEntity, response.ErrCodeUnprocessableEntity
	}
	return http.StatusBadRequest, response.ErrCodeValidationFailed
}

// writeError maps err to the response envelope
func writeError(c *gin.Context, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		status, code := validationStatus(c)
		c.JSON(status, response.Invalid(code, ve.Fields))
		return
	}
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			c.JSON(m.status, response.Error(m.code, m.err.Error()))
			return
		}
	}

	logger.Get().WithContext(c.Request.Context()).Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, response.InternalError("An unexpected error occurred"))
}

func bindError(c *gin.Context, err error) {
	status, code := validationStatus(c)
	c.JSON(status, response.Error(code, err.Error()))
}

// tenantID is always present behind RequireTenant
func tenantID(c *gin.Context) string {
	id, _ := middleware.GetTenantID(c)
	return id
}
