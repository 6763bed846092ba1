package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"crm_portal_backend/internal/auth/repository"
	"crm_portal_backend/internal/auth/transport"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"
)

const msgInvalidCredentials = "invalid credentials"

// Service provides password authentication and access token issuance.
type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new auth service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
	}
}

// Login verifies the credentials and issues a signed access token.
// Unknown emails, wrong passwords and deactivated accounts all return
// the same error so the response does not leak which one it was.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return transport.LoginResponse{}, err
	}

	if !user.IsActive {
		s.log.Warn("login attempt on inactive account", "user_id", user.ID)
		return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return transport.LoginResponse{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	token, err := s.issueAccessToken(user)
	if err != nil {
		return transport.LoginResponse{}, err
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return transport.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTokenTTL().Seconds()),
	}, nil
}

func (s *Service) issueAccessToken(user repository.User) (string, error) {
	now := s.now()

	claims := jwt.MapClaims{
		"sub":         user.ID.String(),
		"tenant_type": user.TenantType,
		"roles":       user.Roles,
		"type":        "access",
		"iat":         now.Unix(),
		"exp":         now.Add(s.accessTokenTTL()).Unix(),
	}
	if user.TenantID != nil {
		claims["tenant_id"] = user.TenantID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

func (s *Service) accessTokenTTL() time.Duration {
	ttl := s.cfg.GetAccessTokenTTL()
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return ttl
}
