package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/inspiringwave/ticket-management/internal/api/dto"
	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/service"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// AuthHandler exposes registration, login, logout, and password change.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register. New accounts land in PENDING and
// cannot log in until an admin approves them.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("username, email, password required", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password, req.Bio)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user":    dto.NewUserResponse(user),
			"message": "registration received, awaiting admin approval",
		},
	})
}

// Login handles POST /auth/login. A successful login supersedes any previous
// session for the account.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewBadRequest("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{
			Token:     result.Token,
			ExpiresAt: result.ExpiresAt,
			User:      dto.NewUserResponse(result.User),
		},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	if err := h.auth.Logout(c.UserContext(), actor); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "logged out"}})
}

// ChangePassword handles POST /auth/password/change. Changing the password
// revokes the active session.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewBadRequest("current_password and new_password required", nil)
	}

	if err := h.auth.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "password changed, please log in again"}})
}
