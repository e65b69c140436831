package service

import (
	"context"
	"strings"

	"github.com/inspiringwave/ticket-management/internal/domain"
	"github.com/inspiringwave/ticket-management/internal/repository"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// ProfileService lets an authenticated user read and edit their own profile.
type ProfileService struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
}

// NewProfileService constructs the service.
func NewProfileService(users repository.UserRepository, tickets repository.TicketRepository) *ProfileService {
	return &ProfileService{users: users, tickets: tickets}
}

// ProfileUpdateInput carries editable profile fields. Nil means keep current.
type ProfileUpdateInput struct {
	Username *string
	Bio      *string
}

// Profile is the user's own view of their account.
type Profile struct {
	User        *domain.User
	TicketCount int
}

// Get returns the caller's profile with their ticket involvement count.
func (s *ProfileService) Get(ctx context.Context, actor *domain.User) (*Profile, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	count, err := s.tickets.CountByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &Profile{User: actor, TicketCount: count}, nil
}

// Update modifies the caller's username and bio. Email, role, and status are
// not editable here.
func (s *ProfileService) Update(ctx context.Context, actor *domain.User, input ProfileUpdateInput) (*domain.User, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, apperrors.NewBadRequest("username cannot be empty", nil)
		}
		actor.Username = username
	}
	if input.Bio != nil {
		actor.Bio = strings.TrimSpace(*input.Bio)
	}
	if err := s.users.Update(ctx, actor); err != nil {
		return nil, apperrors.MapError(err)
	}
	return actor, nil
}
