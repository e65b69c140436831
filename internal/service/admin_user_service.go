package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/domain"
	"github.com/inspiringwave/ticket-management/internal/events"
	"github.com/inspiringwave/ticket-management/internal/repository"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// AdminUserService manages the user approval flow, role changes, and
// employee removal. Every operation is admin-gated.
type AdminUserService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NewAdminUserService constructs the service.
func NewAdminUserService(users repository.UserRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher) *AdminUserService {
	return &AdminUserService{users: users, tickets: tickets, dispatcher: dispatcher}
}

// LifecycleResult reports the outcome of an approval or role operation.
type LifecycleResult struct {
	Message string
	User    *domain.User
}

// List returns users, optionally narrowed by lifecycle state. A blank filter
// matches everyone; an unknown status value is rejected.
func (s *AdminUserService) List(ctx context.Context, actor *domain.User, rawStatus string) ([]domain.User, error) {
	if err := auth.CanPerform(actor, auth.ActionManageUsers, nil); err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(rawStatus)
	if raw == "" {
		users, err := s.users.ListAll(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return users, nil
	}

	status, ok := domain.ParseUserStatus(raw)
	if !ok {
		return nil, apperrors.NewBadRequest("invalid status: "+raw, nil)
	}
	users, err := s.users.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns one user's details.
func (s *AdminUserService) Get(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if err := auth.CanPerform(actor, auth.ActionManageUsers, nil); err != nil {
		return nil, err
	}
	return s.getUser(ctx, userID)
}

// ApproveOrDecline resolves a PENDING registration. Approval activates the
// account; decline permanently removes it, freeing the email address for
// re-registration. Only these two target statuses are accepted.
func (s *AdminUserService) ApproveOrDecline(ctx context.Context, actor *domain.User, userID, rawStatus string) (*LifecycleResult, error) {
	if err := auth.CanPerform(actor, auth.ActionManageUsers, nil); err != nil {
		return nil, err
	}
	if rawStatus == "" {
		return nil, apperrors.NewBadRequest("status is required", nil)
	}
	status, ok := domain.ParseUserStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewBadRequest("invalid status: "+rawStatus, nil)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserStatusPending {
		return nil, apperrors.NewBadRequest("only PENDING users can be approved or declined", nil)
	}

	switch status {
	case domain.UserStatusDeclined:
		if err := s.users.Delete(ctx, user.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.publish(ctx, actor.ID, events.EventUserDeclined, events.UserLifecyclePayload{
			UserID: user.ID,
			Email:  user.Email,
		})
		return &LifecycleResult{
			Message: "registration rejected; the account has been removed and the email can register again",
		}, nil
	case domain.UserStatusActive:
		user.Status = domain.UserStatusActive
		if err := s.users.Update(ctx, user); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.publish(ctx, actor.ID, events.EventUserApproved, events.UserLifecyclePayload{
			UserID: user.ID,
			Email:  user.Email,
		})
		return &LifecycleResult{Message: "user approved successfully", User: user}, nil
	}
	return nil, apperrors.NewBadRequest("invalid status for approval flow: use ACTIVE or DECLINED", nil)
}

// UpdateRole replaces the user's role. The role is single-valued: promotion
// overwrites EMPLOYEE with ADMIN and demotion does the reverse. A request for
// the role the user already holds succeeds as an informational no-op.
func (s *AdminUserService) UpdateRole(ctx context.Context, actor *domain.User, userID, rawRole string) (*LifecycleResult, error) {
	if err := auth.CanPerform(actor, auth.ActionManageUsers, nil); err != nil {
		return nil, err
	}
	if rawRole == "" {
		return nil, apperrors.NewBadRequest("role is required", nil)
	}
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, apperrors.NewBadRequest("invalid role: "+rawRole, nil)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewBadRequest("user must be ACTIVE to change role", nil)
	}
	if user.Role == role {
		return &LifecycleResult{
			Message: fmt.Sprintf("user already has role %s", role),
			User:    user,
		}, nil
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor.ID, events.EventUserRoleChanged, events.UserLifecyclePayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	return &LifecycleResult{Message: fmt.Sprintf("user role updated to %s", role), User: user}, nil
}

// RemoveEmployee deletes an employee account. Removal is blocked while the
// user is still creator or assignee of any ticket; the error reports how many
// tickets hold the reference so the admin can reassign first.
func (s *AdminUserService) RemoveEmployee(ctx context.Context, actor *domain.User, userID string) error {
	if err := auth.CanPerform(actor, auth.ActionManageUsers, nil); err != nil {
		return err
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleAdmin {
		return apperrors.NewBadRequest("only employees can be removed", nil)
	}

	count, err := s.tickets.CountByUser(ctx, user.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count > 0 {
		return apperrors.NewBadRequest(
			fmt.Sprintf("user has %d associated ticket(s); reassign or delete them first", count),
			map[string]any{"ticket_count": count},
		)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AdminUserService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *AdminUserService) publish(ctx context.Context, actorID string, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
