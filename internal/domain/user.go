package domain

import "time"

// Role enumerates account roles. A user holds exactly one role; promotion
// replaces it rather than adding to a set.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// UserStatus represents the registration approval lifecycle.
type UserStatus string

const (
	UserStatusPending  UserStatus = "PENDING"
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusDeclined UserStatus = "DECLINED"
)

// User is the domain model for accounts. ActiveSessionID holds the session
// identifier of the single valid session; nil means no valid session exists.
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	Bio             string
	Role            Role
	Status          UserStatus
	ActiveSessionID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleEmployee:
		return Role(s), true
	}
	return "", false
}

// ParseUserStatus validates a user status string.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case UserStatusPending, UserStatusActive, UserStatusDeclined:
		return UserStatus(s), true
	}
	return "", false
}
