package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// CheckoutHandler serves the public storefront: plans, checkout and the
// payment provider's callbacks
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	planService     service.PlanService
	webhookService  service.WebhookService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(
	checkoutService service.CheckoutService,
	planService service.PlanService,
	webhookService service.WebhookService,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		planService:     planService,
		webhookService:  webhookService,
	}
}

// Plans lists the plans on sale
// GET /api/v1/plans
func (h *CheckoutHandler) Plans(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context(), true)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(plans))
}

// Checkout creates an order and charges it
// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(result))
}

// AsaasWebhook applies a payment notification
// POST /api/v1/webhooks/asaas
func (h *CheckoutHandler) AsaasWebhook(c *gin.Context) {
	var payload dto.AsaasWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	result, err := h.webhookService.Handle(c.Request.Context(), c.GetHeader(dto.WebhookTokenHeader), &payload)
	if errors.Is(err, service.ErrWebhookOrderNotFound) {
		// answered with 200 so the provider stops retrying a payment we do not own
		logger.Get().WithContext(c.Request.Context()).Warn("webhook for unknown order",
			zap.String("event", payload.Event),
		)
		c.JSON(http.StatusOK, response.SuccessWithWarning(result, err.Error()))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}
