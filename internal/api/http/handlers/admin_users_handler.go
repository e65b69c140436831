package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inspiringwave/ticket-management/internal/api/dto"
	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/service"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// AdminUsersHandler exposes admin user management endpoints.
type AdminUsersHandler struct {
	service *service.AdminUserService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(adminService *service.AdminUserService) *AdminUsersHandler {
	return &AdminUsersHandler{service: adminService}
}

// ListUsers GET /admin/users. Optional ?status=PENDING narrows to the
// approval queue; unknown status values are rejected.
func (h *AdminUsersHandler) ListUsers(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	list, err := h.service.List(c.UserContext(), actor, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(list)})
}

// GetUser GET /admin/users/:id.
func (h *AdminUsersHandler) GetUser(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	user, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ResolveApproval PATCH /admin/users/:id/approval.
func (h *AdminUsersHandler) ResolveApproval(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var req dto.ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	result, err := h.service.ApproveOrDecline(c.UserContext(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": lifecycleResponse(result)})
}

// UpdateRole PATCH /admin/users/:id/role.
func (h *AdminUsersHandler) UpdateRole(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)

	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	result, err := h.service.UpdateRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": lifecycleResponse(result)})
}

// RemoveUser DELETE /admin/users/:id.
func (h *AdminUsersHandler) RemoveUser(c *fiber.Ctx) error {
	actor, _ := auth.CurrentUser(c)
	if err := h.service.RemoveEmployee(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: "user removed"}})
}

func lifecycleResponse(result *service.LifecycleResult) dto.LifecycleResponse {
	resp := dto.LifecycleResponse{Message: result.Message}
	if result.User != nil {
		user := dto.NewUserResponse(result.User)
		resp.User = &user
	}
	return resp
}
