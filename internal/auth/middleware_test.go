package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func newTestApp(t *testing.T, roles ...domain.Role) (*fiber.App, *TokenManager, *repository.MemoryUserRepository) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	tokens := NewTokenManager("secret", 30)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var domainErr *apperrors.DomainError
			if errors.As(err, &domainErr) {
				return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": domainErr.Message})
			}
			return c.SendStatus(http.StatusInternalServerError)
		},
	})
	mw := NewAuthMiddleware(tokens, users)
	app.Get("/me", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		require.True(t, ok)
		return c.SendString(actor.ID + ":" + string(actor.Role))
	})
	return app, tokens, users
}

func seedUser(t *testing.T, users *repository.MemoryUserRepository, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: "Sam", Email: string(role) + "@example.com", Role: role}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	app, _, _ := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	app, _, _ := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareUsesStoredRole(t *testing.T) {
	app, tokens, users := newTestApp(t)
	user := seedUser(t, users, domain.RoleSupport)
	// the token claims admin, the account says support
	token, _, err := tokens.GenerateToken(user.ID, domain.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, user.ID+":support", string(body))
}

func TestAuthMiddlewareRejectsUnknownUser(t *testing.T) {
	app, tokens, _ := newTestApp(t)
	token, _, err := tokens.GenerateToken("8a4f8a4e-0000-4000-8000-000000000000", domain.RoleAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleDeniesOtherRoles(t *testing.T) {
	app, tokens, users := newTestApp(t, domain.RoleAdmin)
	user := seedUser(t, users, domain.RoleCustomer)
	token, _, err := tokens.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
