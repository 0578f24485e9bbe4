package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/imobsites/imobsites-panel/backend-master/internal/dto"
	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/logger"
	"github.com/imobsites/imobsites-panel/pkg/middleware"
)

// MasterSubject is the token subject of the platform operator
const MasterSubject = "master"

// AuthService authenticates the platform operator
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	master config.MasterConfig
	jwt    config.JWTConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(master config.MasterConfig, jwt config.JWTConfig) AuthService {
	return &authService{master: master, jwt: jwt}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if s.master.Email == "" || s.master.PasswordHash == "" {
		logger.Get().WithContext(ctx).Warn("master login attempted without configured credentials")
		return nil, ErrInvalidCredentials
	}
	if !strings.EqualFold(email, s.master.Email) {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.master.PasswordHash), []byte(req.Password)); err != nil {
		logger.Get().WithContext(ctx).Info("master login rejected", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := middleware.IssueToken(s.jwt.Secret, s.jwt.Issuer, MasterSubject, middleware.Claims{
		Email: s.master.Email,
		Role:  middleware.RoleMaster,
	}, s.jwt.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        middleware.RoleMaster,
	}, nil
}
