package di

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/handler"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/repository"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/service"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/storage"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/database"
	"github.com/imobsites/imobsites-panel/pkg/health"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/redis"
)

// Container holds all dependencies for the tenant admin panel
type Container struct {
	cfg *config.Config

	// Infrastructure
	DB      *database.PostgresDB
	Redis   *redis.Client
	Storage storage.Storage

	// Repositories
	UserRepo     repository.UserRepository
	PropertyRepo repository.PropertyRepository
	ImageRepo    repository.ImageRepository
	ContactRepo  repository.ContactRepository

	// Services
	AuthService     service.AuthService
	PropertyService service.PropertyService
	ContactService  service.ContactService
	UploadService   service.UploadService

	// Handlers
	Handlers *handler.Handlers
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	DB     *database.PostgresDB
	// Redis is optional; without it neighborhood lookups are not cached
	Redis *redis.Client
	// Storage defaults to the local upload directory
	Storage storage.Storage
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	appCfg := cfg.Config
	c := &Container{
		cfg:     appCfg,
		DB:      cfg.DB,
		Redis:   cfg.Redis,
		Storage: cfg.Storage,
	}
	if c.Storage == nil {
		c.Storage = storage.NewLocalStorage(appCfg.Uploads.Dir, appCfg.Uploads.PublicBaseURL)
	}

	// Initialize repositories
	pool := cfg.DB.Pool()
	c.UserRepo = repository.NewPostgresUserRepository(pool)
	c.PropertyRepo = repository.NewPostgresPropertyRepository(pool)
	c.ImageRepo = repository.NewPostgresImageRepository(pool)
	c.ContactRepo = repository.NewPostgresContactRepository(pool)

	var cache service.Cache
	if c.Redis != nil {
		cache = c.Redis
	}

	// Initialize services
	c.AuthService = service.NewAuthService(c.UserRepo, appCfg.JWT)
	c.PropertyService = service.NewPropertyService(c.PropertyRepo, c.ImageRepo, c.Storage, cache)
	c.ContactService = service.NewContactService(c.ContactRepo, c.PropertyRepo)
	c.UploadService = service.NewUploadService(c.PropertyRepo, c.ImageRepo, c.Storage, appCfg.Uploads.MaxBytes)

	// Initialize handlers
	checks := map[string]health.Pinger{"postgres": cfg.DB}
	if c.Redis != nil {
		checks["redis"] = health.PingFunc(func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() })
	}
	c.Handlers = &handler.Handlers{
		Health:   health.NewHandler("backend-admin", checks),
		Auth:     handler.NewAuthHandler(c.AuthService),
		Property: handler.NewPropertyHandler(c.PropertyService),
		Contact:  handler.NewContactHandler(c.ContactService),
		Upload:   handler.NewUploadHandler(c.UploadService, appCfg.Uploads.MaxBytes),
	}

	return c
}

// Router builds the HTTP engine. audit may be nil.
func (c *Container) Router(audit *middleware.AuditLogger, reg *prometheus.Registry) *gin.Engine {
	limit := middleware.DefaultRateLimitConfig()
	limit.RequestsPerSecond = c.cfg.RateLimit.RequestsPerSecond
	limit.BurstSize = c.cfg.RateLimit.Burst
	if !c.cfg.RateLimit.Enabled {
		limit.RequestsPerSecond = 0
	}
	if c.cfg.RateLimit.UseRedis && c.Redis != nil {
		limit.Redis = c.Redis
	}

	routerCfg := handler.RouterConfig{
		JWTSecret:   c.cfg.JWT.Secret,
		Audit:       audit,
		RateLimit:   limit,
		UploadsURL:  c.cfg.Uploads.PublicBaseURL,
		UploadsDir:  c.cfg.Uploads.Dir,
		CORSOrigins: c.cfg.Server.CORSOrigins,
	}
	if reg != nil {
		routerCfg.Metrics = middleware.NewHTTPMetrics(reg, "backend-admin")
		routerCfg.Gatherer = reg
	}
	return handler.NewRouter(c.Handlers, routerCfg)
}
