package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AuthResult is a signed-in account together with its access token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dummyHash  string
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		dummyHash:  dummyHash(cfg.BcryptCost, logger),
		logger:     logger,
	}
}

// dummyHash is compared against when the email is unknown so a miss costs as
// much as a wrong password.
func dummyHash(cost int, logger *zap.Logger) string {
	hashed, err := auth.HashPassword(uuid.NewString(), cost)
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", zap.Error(err))
		return ""
	}
	return hashed
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	user, err := createAccount(ctx, s.users, s.bcryptCost, name, email, password, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer registered", zap.String("user_id", user.ID))
	return s.issue(user)
}

// Login authenticates any account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("please include all fields", nil)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = auth.ComparePassword(s.dummyHash, password)
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// EnsureAdmin creates the bootstrap administrator when configured and absent.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}
	_, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(cfg.AdminEmail)))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	user, err := createAccount(ctx, s.users, s.bcryptCost, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}
