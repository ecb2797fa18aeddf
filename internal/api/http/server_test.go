package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

type testServer struct {
	t       *testing.T
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	tickets := repository.NewMemoryTicketRepository()
	authCfg := config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 60, BcryptCost: 4}

	authService := service.NewAuthService(authCfg, users, nil)
	_, err := authService.EnsureAdmin(context.Background(), config.BootstrapConfig{
		AdminName: "Ada", AdminEmail: "admin@example.com", AdminPassword: "admin-pw",
	})
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	app := NewServer(ServerDeps{
		App:      config.AppConfig{Name: "complaint-service", Version: "test"},
		Logger:   zap.NewNop(),
		Metrics:  metrics,
		Auth:     authService,
		Users:    service.NewUserService(service.UserDependencies{UserRepo: users, BcryptCost: 4}),
		Tickets:  service.NewTicketService(service.TicketDependencies{TicketRepo: tickets, UserRepo: users}),
		UserRepo: users,
	})
	return &testServer{t: t, app: app, metrics: metrics}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func (s *testServer) login(email, password string) (string, string) {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	return data["auth"].(map[string]any)["token"].(string), data["user"].(map[string]any)["id"].(string)
}

func (s *testServer) register(name, email string) (string, string) {
	s.t.Helper()
	status, body := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "pw",
	})
	require.Equal(s.t, http.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	return data["auth"].(map[string]any)["token"].(string), data["user"].(map[string]any)["id"].(string)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestComplaintFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("admin@example.com", "admin-pw")
	customerToken, customerID := s.register("Cara", "cara@example.com")

	status, body := s.do(http.MethodPost, "/api/users", adminToken, map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "pw", "role": "support",
	})
	require.Equal(t, http.StatusCreated, status, body)
	engineerID := body["data"].(map[string]any)["id"].(string)
	engineerToken, _ := s.login("eve@example.com", "pw")

	status, body = s.do(http.MethodPost, "/api/complaints", customerToken, map[string]string{
		"title": "Printer jam", "description": "Tray 2 jams", "category": "Hardware", "priority": "High",
	})
	require.Equal(t, http.StatusCreated, status, body)
	ticket := body["data"].(map[string]any)
	id := ticket["id"].(string)
	assert.Equal(t, customerID, ticket["user"])
	assert.Equal(t, "Open", ticket["status"])
	assert.Equal(t, false, ticket["slaBreached"])
	assert.Len(t, ticket["history"], 1)

	status, body = s.do(http.MethodPut, "/api/complaints/"+id, adminToken, map[string]any{"title": "renamed"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(http.MethodPut, "/api/complaints/"+id, customerToken, map[string]string{"status": "Closed"})
	assert.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, "PRECONDITION_FAILED", errorCode(body))

	status, body = s.do(http.MethodPut, "/api/complaints/"+id, adminToken, map[string]string{"assignedTo": engineerID})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "In Progress", body["data"].(map[string]any)["status"])

	status, body = s.do(http.MethodPut, "/api/complaints/"+id, engineerToken, map[string]string{"status": "Resolved"})
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.do(http.MethodPut, "/api/complaints/"+id, customerToken, map[string]string{"status": "Closed"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["data"].(map[string]any)["history"], 4)

	status, body = s.do(http.MethodPut, "/api/complaints/"+id, customerToken, map[string]string{"status": "Open"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "not authorized", body["error"].(map[string]any)["message"])

	status, body = s.do(http.MethodGet, "/api/complaints/"+id, customerToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Closed", body["data"].(map[string]any)["status"])

	status, body = s.do(http.MethodGet, "/api/complaints/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["total"])
}

func TestOtherCustomerIsNotAuthorized(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.register("Cara", "cara@example.com")
	otherToken, _ := s.register("Otto", "otto@example.com")

	status, body := s.do(http.MethodPost, "/api/complaints", ownerToken, map[string]string{
		"title": "VPN", "description": "Drops hourly", "category": "Network",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["data"].(map[string]any)["id"].(string)
	assert.Equal(t, "Low", body["data"].(map[string]any)["priority"])

	status, _ = s.do(http.MethodGet, "/api/complaints/"+id, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(http.MethodGet, "/api/complaints", otherToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = s.do(http.MethodGet, "/api/complaints/6d1f0c7a-8b8e-4c1e-9d4f-1a2b3c4d5e6f", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestCreateComplaintValidation(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("Cara", "cara@example.com")

	status, body := s.do(http.MethodPost, "/api/complaints", token, map[string]string{"title": "only"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "please include all fields", body["error"].(map[string]any)["message"])
}

func TestAssignableUsersAdminOnly(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("admin@example.com", "admin-pw")
	customerToken, _ := s.register("Cara", "cara@example.com")

	status, _ := s.do(http.MethodGet, "/api/complaints/users", customerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := s.do(http.MethodGet, "/api/complaints/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	users := body["data"].([]any)
	require.Len(t, users, 1)
	user := users[0].(map[string]any)
	assert.Equal(t, "admin", user["role"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")

	status, _ = s.do(http.MethodPost, "/api/users", customerToken, map[string]string{
		"name": "X", "email": "x@example.com", "password": "pw", "role": "admin",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(http.MethodGet, "/api/complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	requests := body["data"].(map[string]any)["requests"].([]any)
	assert.NotEmpty(t, requests)

	status, body = s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestParseUpdateBodyRejectsNullAssignee(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("admin@example.com", "admin-pw")
	status, body := s.do(http.MethodPut, "/api/complaints/6d1f0c7a-8b8e-4c1e-9d4f-1a2b3c4d5e6f", adminToken, map[string]any{"assignedTo": nil})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestErrorMetricsKeyedByRoute(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 50; i++ {
		status, _ := s.do(http.MethodGet, "/api/complaints/"+uuid.NewString(), "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
		status, _ = s.do(http.MethodGet, "/nope/"+uuid.NewString(), "", nil)
		require.Equal(t, http.StatusNotFound, status)
	}

	snap := s.metrics.Snapshot()
	assert.LessOrEqual(t, len(snap.Errors), 2, "%+v", snap.Errors)
	assert.LessOrEqual(t, len(snap.Requests), 2, "%+v", snap.Requests)
	var total int64
	for _, metric := range snap.Errors {
		assert.NotContains(t, metric.Key, "/nope/")
		total += metric.Count
	}
	assert.Equal(t, int64(100), total)
}
