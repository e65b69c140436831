package service

import (
	"context"
	"testing"

	"github.com/inspiringwave/ticket-management/internal/auth"
	"github.com/inspiringwave/ticket-management/internal/config"
	"github.com/inspiringwave/ticket-management/internal/domain"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

func newTestAuthService(users *fakeUserRepo) *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret",
			SessionTTLMinutes: 10,
			BcryptCost:        4,
		},
	}
	return NewAuthService(cfg, users)
}

func activeUser(t *testing.T, users *fakeUserRepo, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	return users.add(&domain.User{
		Username:     "test",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	})
}

func TestRegisterCreatesPendingEmployee(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)

	user, err := svc.Register(context.Background(), "alice", "  Alice@Example.COM ", "Str0ngPass!", "hi")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.Role != domain.RoleEmployee {
		t.Errorf("role = %q, want EMPLOYEE", user.Role)
	}
	if user.Status != domain.UserStatusPending {
		t.Errorf("status = %q, want PENDING", user.Status)
	}
	if user.PasswordHash == "Str0ngPass!" {
		t.Error("password stored in plaintext")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "weak", "")
	if err == nil {
		t.Fatal("Register() accepted a weak password")
	}
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("error = %v, want VALIDATION_FAILED", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	activeUser(t, users, "alice@example.com", "Str0ngPass!", domain.RoleEmployee)

	_, err := svc.Register(context.Background(), "alice2", "alice@example.com", "Str0ngPass!", "")
	if err == nil {
		t.Fatal("Register() accepted a duplicate email")
	}
	if !apperrors.IsCode(err, "BAD_REQUEST") {
		t.Errorf("error = %v, want BAD_REQUEST", err)
	}
}

func TestLoginIssuesSessionAndPersistsIt(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	user := activeUser(t, users, "alice@example.com", "Str0ngPass!", domain.RoleEmployee)

	result, err := svc.Login(context.Background(), "alice@example.com", "Str0ngPass!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Fatal("Login() returned empty token")
	}

	stored, err := users.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.ActiveSessionID == nil {
		t.Fatal("login did not persist a session id")
	}
	if !svc.TokenManager().Validate(result.Token, stored) {
		t.Error("issued token does not validate against the stored session")
	}
}

func TestLoginSupersedesPreviousSession(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	user := activeUser(t, users, "alice@example.com", "Str0ngPass!", domain.RoleEmployee)

	first, err := svc.Login(context.Background(), "alice@example.com", "Str0ngPass!")
	if err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	second, err := svc.Login(context.Background(), "alice@example.com", "Str0ngPass!")
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	stored, _ := users.FindByID(context.Background(), user.ID)
	if svc.TokenManager().Validate(first.Token, stored) {
		t.Error("first token still valid after second login")
	}
	if !svc.TokenManager().Validate(second.Token, stored) {
		t.Error("second token should be the live session")
	}
}

func TestLoginRejectsPendingAccount(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	hash, _ := auth.HashPassword("Str0ngPass!", 4)
	users.add(&domain.User{
		Username:     "bob",
		Email:        "bob@example.com",
		PasswordHash: hash,
		Role:         domain.RoleEmployee,
		Status:       domain.UserStatusPending,
	})

	_, err := svc.Login(context.Background(), "bob@example.com", "Str0ngPass!")
	if err == nil {
		t.Fatal("Login() accepted a pending account")
	}
	if !apperrors.IsCode(err, "UNAUTHENTICATED") {
		t.Errorf("error = %v, want UNAUTHENTICATED", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	activeUser(t, users, "alice@example.com", "Str0ngPass!", domain.RoleEmployee)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "Str0ngPass!"},
		{"wrong password", "alice@example.com", "WrongPass1!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			if err == nil {
				t.Fatal("Login() accepted bad credentials")
			}
			if !apperrors.IsCode(err, "UNAUTHENTICATED") {
				t.Errorf("error = %v, want UNAUTHENTICATED", err)
			}
		})
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	user := activeUser(t, users, "alice@example.com", "Str0ngPass!", domain.RoleEmployee)

	result, err := svc.Login(context.Background(), "alice@example.com", "Str0ngPass!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(context.Background(), result.User); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	stored, _ := users.FindByID(context.Background(), user.ID)
	if stored.ActiveSessionID != nil {
		t.Error("logout did not clear the session id")
	}
	if svc.TokenManager().Validate(result.Token, stored) {
		t.Error("token still valid after logout")
	}
}

func TestChangePasswordRevokesSessionAndVerifiesCurrent(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	activeUser(t, users, "alice@example.com", "Str0ngPass!", domain.RoleEmployee)

	result, err := svc.Login(context.Background(), "alice@example.com", "Str0ngPass!")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.ChangePassword(context.Background(), result.User, "WrongPass1!", "N3wStr0ng!"); err == nil {
		t.Fatal("ChangePassword() accepted a wrong current password")
	}

	if err := svc.ChangePassword(context.Background(), result.User, "Str0ngPass!", "N3wStr0ng!"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	stored, _ := users.FindByID(context.Background(), result.User.ID)
	if stored.ActiveSessionID != nil {
		t.Error("password change did not revoke the session")
	}

	if _, err := svc.Login(context.Background(), "alice@example.com", "Str0ngPass!"); err == nil {
		t.Error("old password still works after change")
	}
	if _, err := svc.Login(context.Background(), "alice@example.com", "N3wStr0ng!"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}
