package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inspiringwave/ticket-management/internal/domain"
)

// TokenManager issues and validates session tokens. Each issued token carries
// a random session identifier; the identifier stored on the user row decides
// which token is the single live session.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Used by tests to control expiry.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// Claims describes the session token payload. Subject is the user email and
// SessionID must match the user's stored ActiveSessionID to be accepted.
type Claims struct {
	SessionID string      `json:"sid"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a fresh token for the user and returns the token string along
// with the new session identifier and expiry. The caller must persist the
// session identifier on the user record; that overwrite is what invalidates
// every previously issued token.
func (tm *TokenManager) Issue(user *domain.User) (string, string, time.Time, error) {
	sessionID := uuid.NewString()
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)

	claims := &Claims{
		SessionID: sessionID,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return tokenString, sessionID, expiresAt, nil
}

// Resolve verifies signature, structure, and expiry, returning the claims.
func (tm *TokenManager) Resolve(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || claims.SessionID == "" {
		return nil, errors.New("malformed token claims")
	}
	return claims, nil
}

// Validate reports whether the token is the user's current live session:
// subject matches the user's email and the embedded session id matches the
// stored ActiveSessionID. A mismatch means the user logged in elsewhere or
// logged out; a nil stored id means no session exists.
func (tm *TokenManager) Validate(tokenStr string, user *domain.User) bool {
	claims, err := tm.Resolve(tokenStr)
	if err != nil {
		return false
	}
	if claims.Subject != user.Email {
		return false
	}
	return user.ActiveSessionID != nil && claims.SessionID == *user.ActiveSessionID
}
