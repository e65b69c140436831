package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/config"
	"github.com/inspiringwave/ticket-management/internal/domain"
	"github.com/inspiringwave/ticket-management/internal/repository"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// AuthService coordinates registration and session flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// LoginResult bundles the issued token with the user's identity snapshot.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new account. New accounts are always PENDING employees
// awaiting admin approval, regardless of requested values.
func (s *AuthService) Register(ctx context.Context, username, email, password, bio string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(username) == "" {
		return nil, apperrors.NewValidationError("username and email required", nil)
	}
	if !auth.IsStrongPassword(password) {
		return nil, apperrors.NewValidationError(
			"password must be at least 8 characters with upper, lower, digit, and special character", nil)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewBadRequest("email already exists", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: hash,
		Bio:          bio,
		Role:         domain.RoleEmployee,
		Status:       domain.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login authenticates a user and issues a fresh session token. Issuing
// overwrites the stored session identifier, superseding any earlier token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// declined accounts are deleted, so a missing row is just bad credentials
			return nil, apperrors.NewUnauthenticated("invalid email or password")
		}
		return nil, apperrors.MapError(err)
	}

	if user.Status == domain.UserStatusPending {
		return nil, apperrors.NewUnauthenticated("your account is pending admin approval")
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthenticated("invalid email or password")
	}

	token, sessionID, expiresAt, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.users.SetActiveSession(ctx, user.ID, &sessionID); err != nil {
		return nil, apperrors.MapError(err)
	}
	user.ActiveSessionID = &sessionID

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes the user's active session.
func (s *AuthService) Logout(ctx context.Context, actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if err := s.users.SetActiveSession(ctx, actor.ID, nil); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes the active session so every outstanding token becomes invalid.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.User, currentPassword, newPassword string) error {
	if actor == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}
	if err := auth.ComparePassword(actor.PasswordHash, currentPassword); err != nil {
		return apperrors.NewBadRequest("current password is incorrect", nil)
	}
	if !auth.IsStrongPassword(newPassword) {
		return apperrors.NewValidationError(
			"password must be at least 8 characters with upper, lower, digit, and special character", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	actor.PasswordHash = hash
	if err := s.users.Update(ctx, actor); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.SetActiveSession(ctx, actor.ID, nil); err != nil {
		return apperrors.MapError(err)
	}
	actor.ActiveSessionID = nil
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
