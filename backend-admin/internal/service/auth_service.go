package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/imobsites/imobsites-panel/backend-admin/internal/dto"
	"github.com/imobsites/imobsites-panel/backend-admin/internal/repository"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
)

// MinPasswordLength applies to passwords chosen at activation
const MinPasswordLength = 8

// AuthService signs tenant staff in and activates new accounts
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Activate(ctx context.Context, req *dto.ActivateRequest) error
}

type authService struct {
	users repository.UserRepository
	jwt   config.JWTConfig
	now   func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepository, jwt config.JWTConfig) AuthService {
	return &authService{users: users, jwt: jwt, now: time.Now}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	log := logger.Get().WithContext(ctx)
	email := strings.TrimSpace(req.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CanSignIn() {
		log.Info("admin login refused for inactive account",
			zap.String("user_id", user.ID),
			zap.Bool("user_active", user.IsActive),
			zap.Bool("tenant_active", user.TenantActive),
		)
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Info("admin login rejected", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := middleware.IssueToken(s.jwt.Secret, s.jwt.Issuer, user.ID, middleware.Claims{
		Email:    user.Email,
		Role:     middleware.RoleAdmin,
		TenantID: user.TenantID,
	}, s.jwt.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        middleware.RoleAdmin,
		TenantID:    user.TenantID,
		UserID:      user.ID,
		Name:        user.Name,
	}, nil
}

func (s *authService) Activate(ctx context.Context, req *dto.ActivateRequest) error {
	fields := map[string]string{}
	if len(req.Password) < MinPasswordLength {
		fields["password"] = "must have at least 8 characters"
	}
	if req.PasswordConfirmation != "" && req.PasswordConfirmation != req.Password {
		fields["password_confirmation"] = "does not match"
	}
	if err := NewValidationError(fields); err != nil {
		return err
	}

	token := strings.TrimSpace(req.Token)
	user, err := s.users.GetByActivationToken(ctx, token)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidActivation
	}
	now := s.now()
	if user.ActivationExpired(now) {
		return ErrActivationExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ok, err := s.users.Activate(ctx, token, string(hash), now)
	if err != nil {
		return err
	}
	if !ok {
		// consumed by a concurrent request
		return ErrInvalidActivation
	}
	logger.Get().WithContext(ctx).Info("admin account activated",
		zap.String("user_id", user.ID),
		zap.String("tenant_id", user.TenantID),
	)
	return nil
}
