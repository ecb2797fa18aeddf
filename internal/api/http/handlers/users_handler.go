package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints: sign-up, sign-in, staff provisioning
// and the assignee directory.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Register handles POST /api/auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authPayload(result))
}

// Login handles POST /api/auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(authPayload(result))
}

// CreateStaff handles POST /api/users.
func (h *UsersHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.StaffCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.CreateStaff(c.UserContext(), service.StaffCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user.Public())})
}

// ListAssignable handles GET /api/complaints/users.
func (h *UsersHandler) ListAssignable(c *fiber.Ctx) error {
	users, err := h.users.ListAssignableUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, userResponse(user))
	}
	return c.JSON(fiber.Map{"data": items})
}

func authPayload(result *service.AuthResult) fiber.Map {
	return fiber.Map{
		"data": fiber.Map{
			"user": userResponse(result.User.Public()),
			"auth": dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt},
		},
	}
}

func userResponse(user domain.PublicUser) dto.UserResponse {
	return dto.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}
