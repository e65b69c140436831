package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/inspiringwave/ticket-management/internal/domain"
	"github.com/inspiringwave/ticket-management/internal/repository"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

const currentUserKey = "auth_current_user"

// Middleware validates bearer tokens and loads the actor for downstream
// handlers. Requests without any bearer credential continue as anonymous and
// are rejected later by policy if the action requires identity; any supplied
// credential that fails to resolve or validate is rejected here.
type Middleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// Handle authenticates the request when a bearer token is present.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := m.tokens.Resolve(parts[1])
	if err != nil {
		return apperrors.NewUnauthenticated("invalid or expired token")
	}

	user, err := m.users.FindByEmail(c.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthenticated("user not found")
		}
		return apperrors.MapError(err)
	}

	if !m.tokens.Validate(parts[1], user) {
		return apperrors.NewUnauthenticated("session expired: logged in from another device")
	}

	c.Locals(currentUserKey, user)
	return c.Next()
}

// RequireUser rejects anonymous requests.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		return c.Next()
	}
}

// CurrentUser retrieves the authenticated actor, if any.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(currentUserKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
