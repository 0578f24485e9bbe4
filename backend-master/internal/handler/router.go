package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imobsites/imobsites-panel/pkg/health"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health   *health.Handler
	Auth     *AuthHandler
	Checkout *CheckoutHandler
	Tenant   *TenantHandler
	Plan     *PlanHandler
	Order    *OrderHandler
	Email    *EmailHandler
}

// RouterConfig holds the cross-cutting middleware settings
type RouterConfig struct {
	JWTSecret string
	// Audit records master mutations when set
	Audit *middleware.AuditLogger
	// Metrics and Gatherer expose /metrics when both are set
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer
	// RateLimit guards the public checkout and login
	RateLimit middleware.RateLimitConfig
	// CORSOrigins defaults to any origin when empty
	CORSOrigins []string
}

// NewRouter builds the master panel engine
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.CORSWithConfig(middleware.CORSFromOrigins(cfg.CORSOrigins)))

	if h.Health != nil {
		h.Health.Register(r)
	}
	if cfg.Metrics != nil && cfg.Gatherer != nil {
		r.GET("/metrics", middleware.MetricsHandler(cfg.Gatherer))
	}

	limit := middleware.RateLimiter(cfg.RateLimit)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/plans", h.Checkout.Plans)
		v1.POST("/checkout", limit, h.Checkout.Checkout)
		v1.POST("/webhooks/asaas", h.Checkout.AsaasWebhook)
		v1.POST("/master/auth/login", limit, h.Auth.Login)
	}

	master := v1.Group("/master")
	master.Use(
		middleware.JWTMiddleware(&middleware.JWTConfig{Secret: cfg.JWTSecret}),
		middleware.RequireRole(middleware.RoleMaster),
	)
	if cfg.Audit != nil {
		master.Use(middleware.AuditMiddleware(cfg.Audit))
	}

	tenants := master.Group("/tenants")
	{
		tenants.GET("", h.Tenant.List)
		tenants.POST("", h.Tenant.Onboard)
		tenants.GET("/:id", h.Tenant.Get)
		tenants.PATCH("/:id", h.Tenant.Update)
		tenants.POST("/:id/suspend", h.Tenant.Suspend)
		tenants.POST("/:id/activate", h.Tenant.Activate)
		tenants.POST("/:id/domains", h.Tenant.AddDomain)
		tenants.DELETE("/:id/domains/:domainId", h.Tenant.RemoveDomain)
		tenants.POST("/:id/domains/:domainId/primary", h.Tenant.SetPrimaryDomain)
		tenants.GET("/:id/settings", h.Tenant.GetSettings)
		tenants.PUT("/:id/settings", h.Tenant.UpdateSettings)
		tenants.POST("/:id/users/:userId/resend-activation", h.Tenant.ResendActivation)
	}

	plans := master.Group("/plans")
	{
		plans.GET("", h.Plan.List)
		plans.POST("", h.Plan.Create)
		plans.GET("/:id", h.Plan.Get)
		plans.PUT("/:id", h.Plan.Update)
		plans.POST("/:id/feature", h.Plan.Feature)
		plans.PATCH("/:id/active", h.Plan.SetActive)
		plans.DELETE("/:id", h.Plan.Delete)
	}

	orders := master.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.GET("/export", h.Order.Export)
		orders.POST("/reminders/run", h.Order.RunReminders)
		orders.GET("/:id", h.Order.Get)
		orders.POST("/:id/cancel", h.Order.Cancel)
		orders.POST("/:id/tenant", h.Order.AttachTenant)
		orders.POST("/:id/remind", h.Order.RemindNow)
	}

	email := master.Group("/email")
	{
		email.GET("/templates", h.Email.ListTemplates)
		email.POST("/templates", h.Email.CreateTemplate)
		email.GET("/templates/:id", h.Email.GetTemplate)
		email.PUT("/templates/:id", h.Email.UpdateTemplate)
		email.DELETE("/templates/:id", h.Email.DeleteTemplate)
		email.POST("/templates/:id/preview", h.Email.Preview)
		email.GET("/settings", h.Email.GetSettings)
		email.PUT("/settings", h.Email.UpdateSettings)
		email.POST("/test", h.Email.SendTest)
	}

	return r
}
