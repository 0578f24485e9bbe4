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
	Property *PropertyHandler
	Contact  *ContactHandler
	Upload   *UploadHandler
}

// RouterConfig holds the cross-cutting middleware settings
type RouterConfig struct {
	JWTSecret string
	Audit     *middleware.AuditLogger
	Metrics   *middleware.HTTPMetrics
	Gatherer  prometheus.Gatherer
	// RateLimit guards login and activation
	RateLimit middleware.RateLimitConfig
	// UploadsURL and UploadsDir serve stored images when both are set
	UploadsURL  string
	UploadsDir  string
	CORSOrigins []string
}

// NewRouter builds the tenant admin engine
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
	if cfg.UploadsURL != "" && cfg.UploadsDir != "" {
		r.Static(cfg.UploadsURL, cfg.UploadsDir)
	}

	limit := middleware.RateLimiter(cfg.RateLimit)

	auth := r.Group("/api/v1/admin/auth")
	{
		auth.POST("/login", limit, h.Auth.Login)
		auth.POST("/activate", limit, h.Auth.Activate)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(
		middleware.JWTMiddleware(&middleware.JWTConfig{Secret: cfg.JWTSecret}),
		middleware.RequireRole(middleware.RoleAdmin),
		middleware.RequireTenant(),
	)
	if cfg.Audit != nil {
		admin.Use(middleware.AuditMiddleware(cfg.Audit))
	}

	properties := admin.Group("/properties")
	{
		properties.GET("", h.Property.List)
		properties.POST("", h.Property.Create)
		properties.GET("/:id", h.Property.Get)
		properties.PUT("/:id", h.Property.Update)
		properties.DELETE("/:id", h.Property.Delete)

		properties.GET("/:id/images", h.Upload.List)
		properties.POST("/:id/images", h.Upload.Upload)
		properties.POST("/:id/images/:imageId/cover", h.Upload.SetCover)
		properties.DELETE("/:id/images/:imageId", h.Upload.Delete)
	}

	contacts := admin.Group("/contacts")
	{
		contacts.GET("", h.Contact.List)
		contacts.POST("", h.Contact.Create)
		contacts.GET("/:id", h.Contact.Get)
		contacts.PATCH("/:id/status", h.Contact.UpdateStatus)
		contacts.DELETE("/:id", h.Contact.Delete)
	}

	admin.GET("/ajax/neighborhoods", h.Property.Neighborhoods)

	return r
}
