package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/export"
	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// OrderHandler handles order management HTTP requests
type OrderHandler struct {
	orderService    service.OrderService
	reminderService service.ReminderService
	batchLimit      int
}

// NewOrderHandler creates a new OrderHandler. batchLimit caps manual
// reminder runs that do not pass ?limit.
func NewOrderHandler(orderService service.OrderService, reminderService service.ReminderService, batchLimit int) *OrderHandler {
	if batchLimit <= 0 {
		batchLimit = 50
	}
	return &OrderHandler{orderService: orderService, reminderService: reminderService, batchLimit: batchLimit}
}

// List handles retrieving orders with pagination and filters
// GET /api/v1/master/orders
func (h *OrderHandler) List(c *gin.Context) {
	var query dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), &query)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(orders, query.Page, query.Limit, int64(total)))
}

// Get handles retrieving one order
// GET /api/v1/master/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := requireParam(c, "id", "Order ID")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(order))
}

// Cancel cancels a pending order
// POST /api/v1/master/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := requireParam(c, "id", "Order ID")
	if !ok {
		return
	}

	order, warning, err := h.orderService.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if warning != "" {
		c.JSON(http.StatusOK, response.SuccessWithWarning(order, warning))
		return
	}
	c.JSON(http.StatusOK, response.Success(order))
}

// AttachTenant onboards a tenant from a paid order
// POST /api/v1/master/orders/:id/tenant
func (h *OrderHandler) AttachTenant(c *gin.Context) {
	id, ok := requireParam(c, "id", "Order ID")
	if !ok {
		return
	}

	var req dto.AttachTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.orderService.AttachTenant(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuditMetadata(c, map[string]interface{}{"tenant_id": result.Tenant.ID})
	c.JSON(http.StatusCreated, response.Success(result))
}

// RemindNow sends a payment reminder for one pending order
// POST /api/v1/master/orders/:id/remind
func (h *OrderHandler) RemindNow(c *gin.Context) {
	id, ok := requireParam(c, "id", "Order ID")
	if !ok {
		return
	}

	order, err := h.reminderService.SendNow(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(order))
}

// RunReminders runs one reminder batch
// POST /api/v1/master/orders/reminders/run
func (h *OrderHandler) RunReminders(c *gin.Context) {
	var query dto.RunRemindersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	if query.Limit == 0 {
		query.Limit = h.batchLimit
	}

	result, err := h.reminderService.Run(c.Request.Context(), query.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Export downloads the filtered orders as a spreadsheet
// GET /api/v1/master/orders/export
func (h *OrderHandler) Export(c *gin.Context) {
	var query dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	// buffered so a failure still gets a JSON error instead of a torn download
	var buf bytes.Buffer
	if err := h.orderService.Export(c.Request.Context(), &query, &buf); err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(time.Now())))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
