package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/response"
)

// PlanHandler handles the plan catalog
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// List returns every plan, active or not
// GET /api/v1/master/plans
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(plans))
}

// Get returns one plan
// GET /api/v1/master/plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	id, ok := requireParam(c, "id", "Plan ID")
	if !ok {
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(plan))
}

// Create adds a plan. Accepts JSON or a submitted form.
// POST /api/v1/master/plans
func (h *PlanHandler) Create(c *gin.Context) {
	var form dto.PlanForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), &form)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuditResourceID(c, plan.ID)
	c.JSON(http.StatusCreated, response.Success(plan))
}

// Update replaces a plan
// PUT /api/v1/master/plans/:id
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := requireParam(c, "id", "Plan ID")
	if !ok {
		return
	}

	var form dto.PlanForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), id, &form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(plan))
}

// Feature makes the plan the highlighted one on the storefront
// POST /api/v1/master/plans/:id/feature
func (h *PlanHandler) Feature(c *gin.Context) {
	id, ok := requireParam(c, "id", "Plan ID")
	if !ok {
		return
	}

	if err := h.planService.SetFeatured(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Featured plan updated"}))
}

// SetActive toggles whether the plan is on sale
// PATCH /api/v1/master/plans/:id/active
func (h *PlanHandler) SetActive(c *gin.Context) {
	id, ok := requireParam(c, "id", "Plan ID")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.planService.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"is_active": *req.IsActive}))
}

// Delete removes a plan no order refers to
// DELETE /api/v1/master/plans/:id
func (h *PlanHandler) Delete(c *gin.Context) {
	id, ok := requireParam(c, "id", "Plan ID")
	if !ok {
		return
	}

	if err := h.planService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Plan deleted successfully"}))
}
