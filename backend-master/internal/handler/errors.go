package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable maps service sentinels to HTTP responses. The sentinel's
// message is shown to the caller.
var errorTable = []errorMapping{
	{service.ErrTenantNotFound, http.StatusNotFound, response.ErrCodeNotFound},
	{service.ErrDomainNotFound, http.StatusNotFound, response.ErrCodeNotFound},
	{service.ErrUserNotFound, http.StatusNotFound, response.ErrCodeNotFound},
	{service.ErrPlanNotFound, http.StatusNotFound, response.ErrCodeNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound, response.ErrCodeNotFound},
	{service.ErrTemplateNotFound, http.StatusNotFound, response.ErrCodeNotFound},

	{service.ErrTenantAlreadyExists, http.StatusConflict, response.ErrCodeDuplicateEntry},
	{service.ErrDomainTaken, http.StatusConflict, response.ErrCodeDuplicateEntry},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrCodeDuplicateEntry},
	{service.ErrPlanCodeTaken, http.StatusConflict, response.ErrCodeDuplicateEntry},
	{service.ErrTemplateSlugTaken, http.StatusConflict, response.ErrCodeDuplicateEntry},

	{service.ErrOrderAlreadyPaid, http.StatusConflict, response.ErrCodeInvalidState},
	{service.ErrOrderNotPaid, http.StatusConflict, response.ErrCodeInvalidState},
	{service.ErrOrderHasTenant, http.StatusConflict, response.ErrCodeInvalidState},
	{service.ErrOrderNotPending, http.StatusConflict, response.ErrCodeInvalidState},
	{service.ErrPrimaryDomain, http.StatusConflict, response.ErrCodeInvalidState},
	{service.ErrPlanInUse, http.StatusConflict, response.ErrCodeInvalidState},
	{service.ErrUserAlreadyActive, http.StatusConflict, response.ErrCodeInvalidState},

	{service.ErrPlanUnavailable, http.StatusUnprocessableEntity, response.ErrCodePlanUnavailable},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrCodeUnauthorized},
	{service.ErrInvalidWebhookToken, http.StatusUnauthorized, response.ErrCodeUnauthorized},
	{service.ErrPaymentFailed, http.StatusBadGateway, response.ErrCodeGatewayError},
	{service.ErrMailDelivery, http.StatusBadGateway, response.ErrCodeGatewayError},
}

// validationStatus is 422 for in-page edits and 400 for form posts
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
	if service.IsPaymentInputError(err) {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
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

// bindError answers a request body or query that failed to bind
func bindError(c *gin.Context, err error) {
	status, code := validationStatus(c)
	c.JSON(status, response.Error(code, err.Error()))
}

// requireParam reads a path parameter or answers 400
func requireParam(c *gin.Context, name, label string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest(label+" is required"))
		return "", false
	}
	return v, true
}

// int64Param reads a numeric path parameter or answers 400
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid "+name))
		return 0, false
	}
	return id, true
}
