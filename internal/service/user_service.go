package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// AssignableUsersCache is a read-through cache for the staff list.
type AssignableUsersCache interface {
	GetAssignable(ctx context.Context) ([]domain.PublicUser, bool, error)
	SetAssignable(ctx context.Context, users []domain.PublicUser) error
	InvalidateAssignable(ctx context.Context) error
}

// UserService manages staff accounts and the assignee directory.
type UserService struct {
	users      repository.UserRepository
	cache      AssignableUsersCache
	bcryptCost int
	logger     *zap.Logger
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Cache      AssignableUsersCache
	BcryptCost int
	Logger     *zap.Logger
}

// StaffCreateInput describes a new support or admin account.
type StaffCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// NewUserService constructs the service. A nil Cache disables caching.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		cache:      deps.Cache,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
	}
}

// ListAssignableUsers returns every support and admin account, without
// credentials. Cache failures fall back to the repository.
func (s *UserService) ListAssignableUsers(ctx context.Context) ([]domain.PublicUser, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetAssignable(ctx)
		if err != nil {
			s.logger.Warn("assignable users cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	users, err := s.users.ListByRoles(ctx, domain.RoleSupport, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	result := make([]domain.PublicUser, 0, len(users))
	for _, user := range users {
		result = append(result, user.Public())
	}

	if s.cache != nil {
		if err := s.cache.SetAssignable(ctx, result); err != nil {
			s.logger.Warn("assignable users cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// CreateStaff provisions a support or admin account.
func (s *UserService) CreateStaff(ctx context.Context, input StaffCreateInput) (*domain.User, error) {
	if !input.Role.IsStaff() {
		return nil, apperrors.NewValidationError("role must be support or admin", map[string]any{"role": input.Role})
	}
	user, err := createAccount(ctx, s.users, s.bcryptCost, input.Name, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("staff account created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *UserService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAssignable(ctx); err != nil {
		s.logger.Warn("assignable users cache invalidation failed", zap.Error(err))
	}
}

// createAccount validates and stores a new account with a hashed password.
func createAccount(ctx context.Context, users repository.UserRepository, cost int, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	missing := []string{}
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("please include all fields", map[string]any{"missing": missing})
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user already exists", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
