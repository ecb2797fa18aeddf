package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func newAuthService(users repository.UserRepository) *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}, users, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	users := repository.NewMemoryUserRepository()
	svc := newAuthService(users)
	ctx := context.Background()

	registered, err := svc.Register(ctx, " Cara ", "Cara@Example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, registered.User.Role)
	assert.Equal(t, "cara@example.com", registered.User.Email)
	assert.NotEqual(t, "hunter2", registered.User.PasswordHash)
	assert.NotEmpty(t, registered.Token)

	loggedIn, err := svc.Login(ctx, "cara@example.com", "hunter2")
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.Subject)
	assert.Equal(t, domain.RoleCustomer, claims.Role)

	_, err = svc.Login(ctx, "cara@example.com", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "hunter2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = svc.Login(ctx, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.Register(ctx, "Cara", "cara@example.com", "again")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestLoginUnknownEmailPaysBcryptCost(t *testing.T) {
	svc := newAuthService(repository.NewMemoryUserRepository())

	cost, err := bcrypt.Cost([]byte(svc.dummyHash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)

	_, err = svc.Login(context.Background(), "ghost@example.com", "whatever")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(svc.dummyHash), []byte("whatever")))
}

func TestEnsureAdmin(t *testing.T) {
	users := repository.NewMemoryUserRepository()
	svc := newAuthService(users)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, config.BootstrapConfig{})
	require.NoError(t, err)
	assert.False(t, created)

	cfg := config.BootstrapConfig{AdminName: "Root", AdminEmail: "root@example.com", AdminPassword: "pw"}
	created, err = svc.EnsureAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}
