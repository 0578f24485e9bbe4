package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	OTel      OTelConfig      `mapstructure:"otel"`
	Asaas     AsaasConfig     `mapstructure:"asaas"`
	Mail      MailConfig      `mapstructure:"mail"`
	Master    MasterConfig    `mapstructure:"master"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
	Reminder  ReminderConfig  `mapstructure:"reminder"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
	PublicURL   string `mapstructure:"public_url"` // base URL used in e-mail links
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	AdminPort    int           `mapstructure:"admin_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// CORSOrigins accepts exact origins, "*" or "https://*.domain"
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	ClientID string   `mapstructure:"client_id"`
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Issuer         string        `mapstructure:"issuer"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServiceName   string `mapstructure:"service_name"`
	CollectorAddr string `mapstructure:"collector_addr"`
}

// AsaasConfig holds payment gateway settings
type AsaasConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	Environment        string        `mapstructure:"environment"` // sandbox, production
	WebhookToken       string        `mapstructure:"webhook_token"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	PixInitialDelay    time.Duration `mapstructure:"pix_initial_delay"`
	PixRetryInterval   time.Duration `mapstructure:"pix_retry_interval"`
	PixMaxRetries      int           `mapstructure:"pix_max_retries"`
	BoletoInitialDelay time.Duration `mapstructure:"boleto_initial_delay"`
}

// BaseURL returns the gateway base URL for the configured environment
func (a *AsaasConfig) BaseURL() string {
	if a.Environment == "production" {
		return "https://api.asaas.com/v3"
	}
	return "https://sandbox.asaas.com/api/v3"
}

// MailConfig holds the file-based fallback mail transport, used when
// the email_settings row is missing
type MailConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Encryption string `mapstructure:"encryption"` // none, ssl, tls
	FromEmail  string `mapstructure:"from_email"`
	FromName   string `mapstructure:"from_name"`
	ReplyTo    string `mapstructure:"reply_to"`
}

// MasterConfig holds the platform operator credentials
type MasterConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"` // bcrypt
}

// UploadsConfig holds admin upload storage settings
type UploadsConfig struct {
	Dir           string `mapstructure:"dir"`
	MaxBytes      int64  `mapstructure:"max_bytes"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// ReminderConfig holds the pending-order reminder batch settings
type ReminderConfig struct {
	BatchLimit     int           `mapstructure:"batch_limit"`
	CLIBatchLimit  int           `mapstructure:"cli_batch_limit"`
	WorkerEnabled  bool          `mapstructure:"worker_enabled"`
	WorkerInterval time.Duration `mapstructure:"worker_interval"`
	LockTTL        time.Duration `mapstructure:"lock_ttl"`
}

// RateLimitConfig holds the per-IP limit on public endpoints
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	UseRedis          bool    `mapstructure:"use_redis"`
}

// Load reads the environment, with ./.env filling in unset keys when present
func Load() (*Config, error) {
	return load(".env", false)
}

// LoadWithPath is Load with an explicit env file that must exist
func LoadWithPath(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && required {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{}
	if err := bindConfig(v, cfg); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "imobsites")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("APP_PUBLIC_URL", "http://localhost:8080")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ADMIN_PORT", 8081)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "60s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("SERVER_CORS_ORIGINS", "*")

	// Database defaults
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_DBNAME", "imobsites")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("DATABASE_MIGRATIONS_DIR", "migrations")

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 20)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CLIENT_ID", "imobsites")

	// JWT defaults
	v.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", "12h")
	v.SetDefault("JWT_ISSUER", "imobsites")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "imobsites")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")

	// Asaas defaults
	v.SetDefault("ASAAS_API_KEY", "")
	v.SetDefault("ASAAS_ENVIRONMENT", "sandbox")
	v.SetDefault("ASAAS_WEBHOOK_TOKEN", "")
	v.SetDefault("ASAAS_CONNECT_TIMEOUT", "10s")
	v.SetDefault("ASAAS_READ_TIMEOUT", "30s")
	v.SetDefault("ASAAS_REQUESTS_PER_SECOND", 5)
	v.SetDefault("ASAAS_PIX_INITIAL_DELAY", "1s")
	v.SetDefault("ASAAS_PIX_RETRY_INTERVAL", "2s")
	v.SetDefault("ASAAS_PIX_MAX_RETRIES", 3)
	v.SetDefault("ASAAS_BOLETO_INITIAL_DELAY", "1s")

	// Mail fallback defaults
	v.SetDefault("MAIL_HOST", "localhost")
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_USERNAME", "")
	v.SetDefault("MAIL_PASSWORD", "")
	v.SetDefault("MAIL_ENCRYPTION", "tls")
	v.SetDefault("MAIL_FROM_EMAIL", "no-reply@imobsites.com.br")
	v.SetDefault("MAIL_FROM_NAME", "ImobSites")
	v.SetDefault("MAIL_REPLY_TO", "")

	// Master operator defaults
	v.SetDefault("MASTER_EMAIL", "")
	v.SetDefault("MASTER_PASSWORD_HASH", "")

	// Uploads defaults
	v.SetDefault("UPLOADS_DIR", "uploads")
	v.SetDefault("UPLOADS_MAX_BYTES", 5*1024*1024)
	v.SetDefault("UPLOADS_PUBLIC_BASE_URL", "/uploads")

	// Reminder defaults
	v.SetDefault("REMINDER_BATCH_LIMIT", 50)
	v.SetDefault("REMINDER_CLI_BATCH_LIMIT", 100)
	v.SetDefault("REMINDER_WORKER_ENABLED", false)
	v.SetDefault("REMINDER_WORKER_INTERVAL", "30m")
	v.SetDefault("REMINDER_LOCK_TTL", "5m")

	// Rate limit defaults
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_SECOND", 2)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
}

func bindConfig(v *viper.Viper, cfg *Config) error {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")
	cfg.App.PublicURL = strings.TrimRight(v.GetString("APP_PUBLIC_URL"), "/")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.AdminPort = v.GetInt("SERVER_ADMIN_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")
	cfg.Server.CORSOrigins = strings.Split(v.GetString("SERVER_CORS_ORIGINS"), ",")

	// Database
	cfg.Database.Host = v.GetString("DATABASE_HOST")
	cfg.Database.Port = v.GetInt("DATABASE_PORT")
	cfg.Database.User = v.GetString("DATABASE_USER")
	cfg.Database.Password = v.GetString("DATABASE_PASSWORD")
	cfg.Database.DBName = v.GetString("DATABASE_DBNAME")
	cfg.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	cfg.Database.MaxOpenConns = v.GetInt("DATABASE_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DATABASE_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DATABASE_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("DATABASE_CONN_MAX_IDLE_TIME")
	cfg.Database.MigrationsDir = v.GetString("DATABASE_MIGRATIONS_DIR")

	// Redis
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kafka
	cfg.Kafka.Enabled = v.GetBool("KAFKA_ENABLED")
	cfg.Kafka.Brokers = strings.Split(v.GetString("KAFKA_BROKERS"), ",")
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")

	// JWT
	cfg.JWT.Secret = v.GetString("JWT_SECRET")
	cfg.JWT.AccessTokenTTL = v.GetDuration("JWT_ACCESS_TOKEN_TTL")
	cfg.JWT.Issuer = v.GetString("JWT_ISSUER")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")

	// Asaas
	cfg.Asaas.APIKey = v.GetString("ASAAS_API_KEY")
	cfg.Asaas.Environment = v.GetString("ASAAS_ENVIRONMENT")
	cfg.Asaas.WebhookToken = v.GetString("ASAAS_WEBHOOK_TOKEN")
	cfg.Asaas.ConnectTimeout = v.GetDuration("ASAAS_CONNECT_TIMEOUT")
	cfg.Asaas.ReadTimeout = v.GetDuration("ASAAS_READ_TIMEOUT")
	cfg.Asaas.RequestsPerSecond = v.GetFloat64("ASAAS_REQUESTS_PER_SECOND")
	cfg.Asaas.PixInitialDelay = v.GetDuration("ASAAS_PIX_INITIAL_DELAY")
	cfg.Asaas.PixRetryInterval = v.GetDuration("ASAAS_PIX_RETRY_INTERVAL")
	cfg.Asaas.PixMaxRetries = v.GetInt("ASAAS_PIX_MAX_RETRIES")
	cfg.Asaas.BoletoInitialDelay = v.GetDuration("ASAAS_BOLETO_INITIAL_DELAY")

	// Mail
	cfg.Mail.Host = v.GetString("MAIL_HOST")
	cfg.Mail.Port = v.GetInt("MAIL_PORT")
	cfg.Mail.Username = v.GetString("MAIL_USERNAME")
	cfg.Mail.Password = v.GetString("MAIL_PASSWORD")
	cfg.Mail.Encryption = v.GetString("MAIL_ENCRYPTION")
	cfg.Mail.FromEmail = v.GetString("MAIL_FROM_EMAIL")
	cfg.Mail.FromName = v.GetString("MAIL_FROM_NAME")
	cfg.Mail.ReplyTo = v.GetString("MAIL_REPLY_TO")

	// Master
	cfg.Master.Email = v.GetString("MASTER_EMAIL")
	cfg.Master.PasswordHash = v.GetString("MASTER_PASSWORD_HASH")

	// Uploads
	cfg.Uploads.Dir = v.GetString("UPLOADS_DIR")
	cfg.Uploads.MaxBytes = v.GetInt64("UPLOADS_MAX_BYTES")
	cfg.Uploads.PublicBaseURL = strings.TrimRight(v.GetString("UPLOADS_PUBLIC_BASE_URL"), "/")

	// Reminder
	cfg.Reminder.BatchLimit = v.GetInt("REMINDER_BATCH_LIMIT")
	cfg.Reminder.CLIBatchLimit = v.GetInt("REMINDER_CLI_BATCH_LIMIT")
	cfg.Reminder.WorkerEnabled = v.GetBool("REMINDER_WORKER_ENABLED")
	cfg.Reminder.WorkerInterval = v.GetDuration("REMINDER_WORKER_INTERVAL")
	cfg.Reminder.LockTTL = v.GetDuration("REMINDER_LOCK_TTL")

	// Rate limit
	cfg.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_REQUESTS_PER_SECOND")
	cfg.RateLimit.Burst = v.GetInt("RATE_LIMIT_BURST")
	cfg.RateLimit.UseRedis = v.GetBool("RATE_LIMIT_USE_REDIS")

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.AdminPort <= 0 || c.Server.AdminPort > 65535 {
		return fmt.Errorf("invalid admin server port: %d", c.Server.AdminPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.App.Environment == "production" && c.JWT.Secret == "your-secret-key-change-in-production" {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if c.Asaas.Environment != "sandbox" && c.Asaas.Environment != "production" {
		return fmt.Errorf("invalid asaas environment: %q", c.Asaas.Environment)
	}

	if c.App.Environment == "production" && c.Asaas.APIKey == "" {
		return fmt.Errorf("asaas api key is required in production")
	}

	if c.Reminder.BatchLimit <= 0 {
		return fmt.Errorf("invalid reminder batch limit: %d", c.Reminder.BatchLimit)
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
