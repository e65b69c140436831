package domain

import "testing"

func TestParseTicketStatus(t *testing.T) {
	valid := []string{"TODO", "IN_PROGRESS", "IN_REVIEW", "READY_TO_DEPLOY", "DEPLOYED_DONE"}
	for _, s := range valid {
		status, ok := ParseTicketStatus(s)
		if !ok {
			t.Errorf("ParseTicketStatus(%q) rejected a valid status", s)
		}
		if string(status) != s {
			t.Errorf("ParseTicketStatus(%q) = %q", s, status)
		}
	}

	invalid := []string{"", "todo", "DONE", "IN PROGRESS", "REVIEW"}
	for _, s := range invalid {
		if _, ok := ParseTicketStatus(s); ok {
			t.Errorf("ParseTicketStatus(%q) accepted an invalid status", s)
		}
	}
}

func TestTicketStatusIsTerminal(t *testing.T) {
	if !TicketStatusDeployedDone.IsTerminal() {
		t.Error("DEPLOYED_DONE should be terminal")
	}
	for _, s := range []TicketStatus{TicketStatusTodo, TicketStatusInProgress, TicketStatusInReview, TicketStatusReadyToDeploy} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestTicketStatusAdminOnly(t *testing.T) {
	for _, s := range []TicketStatus{TicketStatusReadyToDeploy, TicketStatusDeployedDone} {
		if !s.AdminOnly() {
			t.Errorf("%s should be admin only", s)
		}
	}
	for _, s := range []TicketStatus{TicketStatusTodo, TicketStatusInProgress, TicketStatusInReview} {
		if s.AdminOnly() {
			t.Errorf("%s should not be admin only", s)
		}
	}
}

func TestParseTicketLabel(t *testing.T) {
	valid := []string{"NEW_FEATURE", "BUG", "IMPROVEMENT"}
	for _, s := range valid {
		if _, ok := ParseTicketLabel(s); !ok {
			t.Errorf("ParseTicketLabel(%q) rejected a valid label", s)
		}
	}
	if _, ok := ParseTicketLabel("FEATURE"); ok {
		t.Error("ParseTicketLabel accepted an invalid label")
	}
}

func TestParseRoleAndUserStatus(t *testing.T) {
	if _, ok := ParseRole("ADMIN"); !ok {
		t.Error("ParseRole rejected ADMIN")
	}
	if _, ok := ParseRole("EMPLOYEE"); !ok {
		t.Error("ParseRole rejected EMPLOYEE")
	}
	if _, ok := ParseRole("MANAGER"); ok {
		t.Error("ParseRole accepted MANAGER")
	}

	for _, s := range []string{"PENDING", "ACTIVE", "DECLINED"} {
		if _, ok := ParseUserStatus(s); !ok {
			t.Errorf("ParseUserStatus(%q) rejected a valid status", s)
		}
	}
	if _, ok := ParseUserStatus("BANNED"); ok {
		t.Error("ParseUserStatus accepted BANNED")
	}
}

func TestUserIsAdmin(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	employee := &User{Role: RoleEmployee}
	var missing *User

	if !admin.IsAdmin() {
		t.Error("admin should be admin")
	}
	if employee.IsAdmin() {
		t.Error("employee should not be admin")
	}
	if missing.IsAdmin() {
		t.Error("nil user should not be admin")
	}
}
