package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/backend-master/internal/domain"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/redis"
)

const (
	settingsCacheKey = "imobsites:email_settings"
	settingsCacheTTL = 10 * time.Minute
)

// SettingsRepository reads and writes the email_settings row
type SettingsRepository interface {
	GetEmailSettings(ctx context.Context) (*domain.EmailSettings, error)
	SaveEmailSettings(ctx context.Context, s *domain.EmailSettings) error
}

// Cache is the subset of the Redis client used for settings
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SettingsStore serves the mail transport configuration. The database row
// wins over the file-based fallback; results are cached in Redis when a
// cache is given and in process memory otherwise. Writers must call Reload.
type SettingsStore struct {
	repo     SettingsRepository
	cache    Cache
	fallback domain.EmailSettings

	mu     sync.RWMutex
	loaded *domain.EmailSettings
}

// NewSettingsStore creates a new SettingsStore; cache may be nil
func NewSettingsStore(repo SettingsRepository, cache Cache, fallback config.MailConfig) *SettingsStore {
	return &SettingsStore{
		repo:  repo,
		cache: cache,
		fallback: domain.EmailSettings{
			FromName:       fallback.FromName,
			FromEmail:      fallback.FromEmail,
			ReplyTo:        fallback.ReplyTo,
			SMTPHost:       fallback.Host,
			SMTPPort:       fallback.Port,
			SMTPUsername:   fallback.Username,
			SMTPPassword:   fallback.Password,
			SMTPEncryption: fallback.Encryption,
		},
	}
}

// Settings returns the current configuration
func (s *SettingsStore) Settings(ctx context.Context) (*domain.EmailSettings, error) {
	if s.cache == nil {
		s.mu.RLock()
		loaded := s.loaded
		s.mu.RUnlock()
		if loaded != nil {
			cp := *loaded
			return &cp, nil
		}
	} else {
		var cached domain.EmailSettings
		err := s.cache.GetJSON(ctx, settingsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			logger.Get().WithContext(ctx).Warn("email settings cache read failed", zap.Error(err))
		}
	}
	return s.load(ctx)
}

func (s *SettingsStore) load(ctx context.Context) (*domain.EmailSettings, error) {
	settings, err := s.repo.GetEmailSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil || settings.SMTPHost == "" {
		fb := s.fallback
		settings = &fb
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, settingsCacheKey, settings, settingsCacheTTL); err != nil {
			logger.Get().WithContext(ctx).Warn("email settings cache write failed", zap.Error(err))
		}
	} else {
		s.mu.Lock()
		cp := *settings
		s.loaded = &cp
		s.mu.Unlock()
	}
	return settings, nil
}

// Reload drops cached settings and reads them again
func (s *SettingsStore) Reload(ctx context.Context) (*domain.EmailSettings, error) {
	s.mu.Lock()
	s.loaded = nil
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
			logger.Get().WithContext(ctx).Warn("email settings cache invalidation failed", zap.Error(err))
		}
	}
	return s.load(ctx)
}

// Save writes settings and reloads them
func (s *SettingsStore) Save(ctx context.Context, settings *domain.EmailSettings) (*domain.EmailSettings, error) {
	if err := s.repo.SaveEmailSettings(ctx, settings); err != nil {
		return nil, err
	}
	return s.Reload(ctx)
}
