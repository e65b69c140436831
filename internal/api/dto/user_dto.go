package dto

import (
	"time"

	"github.com/inspiringwave/ticket-management/internal/domain"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string            `json:"id"`
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	Bio       string            `json:"bio,omitempty"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ProfileResponse is the caller's own view of their account.
type ProfileResponse struct {
	UserResponse
	TicketCount int `json:"ticket_count"`
}

// UpdateProfileRequest payload.
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

// ApprovalRequest payload for resolving a PENDING registration.
type ApprovalRequest struct {
	Status string `json:"status"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// LifecycleResponse reports the outcome of an approval or role operation.
type LifecycleResponse struct {
	Message string        `json:"message"`
	User    *UserResponse `json:"user,omitempty"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Bio:       user.Bio,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// NewUserResponses maps a slice of domain users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
