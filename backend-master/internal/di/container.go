package di

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imobsites/imobsites-panel/backend-master/internal/billing"
	"github.com/imobsites/imobsites-panel/backend-master/internal/gateway"
	"github.com/imobsites/imobsites-panel/backend-master/internal/handler"
	"github.com/imobsites/imobsites-panel/backend-master/internal/notification"
	"github.com/imobsites/imobsites-panel/backend-master/internal/repository"
	"github.com/imobsites/imobsites-panel/backend-master/internal/service"
	"github.com/imobsites/imobsites-panel/backend-master/internal/worker"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/database"
	"github.com/imobsites/imobsites-panel/pkg/health"
	"github.com/imobsites/imobsites-panel/pkg/kafka"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
	"github.com/imobsites/imobsites-panel/pkg/redis"
)

// Container holds all dependencies for the master panel
type Container struct {
	cfg *config.Config

	// Infrastructure
	DB        *database.PostgresDB
	Redis     *redis.Client
	Publisher kafka.Publisher
	Gateway   gateway.PaymentGateway
	Mailer    notification.Mailer
	Settings  *notification.SettingsStore
	Notifier  *notification.Notifier

	// Repositories
	TenantRepo repository.TenantRepository
	UserRepo   repository.UserRepository
	PlanRepo   repository.PlanRepository
	OrderRepo  repository.OrderRepository
	EmailRepo  repository.EmailRepository

	// Services
	AuthService     service.AuthService
	TenantService   service.TenantService
	PlanService     service.PlanService
	OrderService    service.OrderService
	CheckoutService service.CheckoutService
	WebhookService  service.WebhookService
	ReminderService service.ReminderService
	EmailService    service.EmailService

	// Workers
	ReminderWorker *worker.ReminderWorker

	// Handlers
	Handlers *handler.Handlers
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	DB     *database.PostgresDB
	// Redis is optional; without it settings are cached in memory and
	// reminders are not locked across processes
	Redis     *redis.Client
	Publisher kafka.Publisher
	// Gateway defaults to the Asaas client
	Gateway gateway.PaymentGateway
	// Mailer defaults to SMTP with the stored settings
	Mailer notification.Mailer
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	appCfg := cfg.Config
	c := &Container{
		cfg:       appCfg,
		DB:        cfg.DB,
		Redis:     cfg.Redis,
		Publisher: cfg.Publisher,
		Gateway:   cfg.Gateway,
		Mailer:    cfg.Mailer,
	}
	if c.Publisher == nil {
		c.Publisher = kafka.NoOpPublisher{}
	}
	if c.Gateway == nil {
		c.Gateway = gateway.NewAsaasClient(gateway.AsaasConfigFrom(appCfg.Asaas))
	}

	// Initialize repositories
	pool := cfg.DB.Pool()
	c.TenantRepo = repository.NewPostgresTenantRepository(pool)
	c.UserRepo = repository.NewPostgresUserRepository(pool)
	c.PlanRepo = repository.NewPostgresPlanRepository(pool)
	c.OrderRepo = repository.NewPostgresOrderRepository(pool)
	c.EmailRepo = repository.NewPostgresEmailRepository(pool)

	// Mail
	var cache notification.Cache
	var locker service.Locker
	if c.Redis != nil {
		cache = c.Redis
		locker = c.Redis
	}
	c.Settings = notification.NewSettingsStore(c.EmailRepo, cache, appCfg.Mail)
	if c.Mailer == nil {
		c.Mailer = notification.NewSMTPMailer(c.Settings)
	}
	siteName := appCfg.Mail.FromName
	c.Notifier = notification.NewNotifier(c.EmailRepo, c.Mailer, siteName)

	// Initialize services
	c.AuthService = service.NewAuthService(appCfg.Master, appCfg.JWT)
	c.TenantService = service.NewTenantService(c.TenantRepo, c.UserRepo, c.Notifier, c.Publisher, appCfg.App.PublicURL)
	c.PlanService = service.NewPlanService(c.PlanRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.TenantService, c.Gateway, c.Publisher)
	c.CheckoutService = service.NewCheckoutService(
		c.PlanRepo,
		c.OrderRepo,
		billing.NewCustomerResolver(c.Gateway, c.OrderRepo),
		billing.NewPaymentCreator(c.Gateway, billing.PollingConfigFrom(appCfg.Asaas)),
		c.Notifier,
		c.Publisher,
	)
	c.WebhookService = service.NewWebhookService(c.OrderRepo, c.PlanRepo, c.Notifier, c.Publisher, appCfg.Asaas.WebhookToken)
	c.ReminderService = service.NewReminderService(c.OrderRepo, c.PlanRepo, c.Notifier, locker, appCfg.Reminder.LockTTL)
	c.EmailService = service.NewEmailService(c.EmailRepo, c.Settings, c.Mailer, siteName)

	// Initialize workers
	c.ReminderWorker = worker.NewReminderWorker(c.ReminderService, &worker.ReminderWorkerConfig{
		ScanInterval: appCfg.Reminder.WorkerInterval,
		BatchSize:    appCfg.Reminder.BatchLimit,
	})

	// Initialize handlers
	checks := map[string]health.Pinger{"postgres": cfg.DB}
	if c.Redis != nil {
		checks["redis"] = health.PingFunc(func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() })
	}
	c.Handlers = &handler.Handlers{
		Health:   health.NewHandler("backend-master", checks),
		Auth:     handler.NewAuthHandler(c.AuthService),
		Checkout: handler.NewCheckoutHandler(c.CheckoutService, c.PlanService, c.WebhookService),
		Tenant:   handler.NewTenantHandler(c.TenantService),
		Plan:     handler.NewPlanHandler(c.PlanService),
		Order:    handler.NewOrderHandler(c.OrderService, c.ReminderService, appCfg.Reminder.BatchLimit),
		Email:    handler.NewEmailHandler(c.EmailService),
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
		CORSOrigins: c.cfg.Server.CORSOrigins,
	}
	if reg != nil {
		routerCfg.Metrics = middleware.NewHTTPMetrics(reg, "backend-master")
		routerCfg.Gatherer = reg
	}
	return handler.NewRouter(c.Handlers, routerCfg)
}
