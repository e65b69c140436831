package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inspiringwave/ticket-management/internal/api/dto"
	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/service"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// ProfileHandler exposes the caller's own account.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: profileService}
}

// GetProfile GET /profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	profile, err := h.service.Get(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProfileResponse{
		UserResponse: dto.NewUserResponse(profile.User),
		TicketCount:  profile.TicketCount,
	}})
}

// UpdateProfile PATCH /profile.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	user, err := h.service.Update(c.UserContext(), actor, service.ProfileUpdateInput{
		Username: req.Username,
		Bio:      req.Bio,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
