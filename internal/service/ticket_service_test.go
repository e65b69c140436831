package service

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/inspiringwave/ticket-management/internal/domain"
	"github.com/inspiringwave/ticket-management/internal/events"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

type ticketFixture struct {
	svc        *TicketService
	users      *fakeUserRepo
	tickets    *fakeTicketRepo
	history    *fakeHistoryRepo
	dispatcher *recordingDispatcher
	admin      *domain.User
	assignee   *domain.User
	other      *domain.User
}

func newTicketFixture() *ticketFixture {
	users := newFakeUserRepo()
	history := &fakeHistoryRepo{}
	tickets := newFakeTicketRepo(history)
	comments := &fakeCommentRepo{}
	attachments := newFakeAttachmentRepo()
	dispatcher := &recordingDispatcher{}

	admin := users.add(&domain.User{Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin, Status: domain.UserStatusActive})
	assignee := users.add(&domain.User{Username: "emp", Email: "emp@example.com", Role: domain.RoleEmployee, Status: domain.UserStatusActive})
	other := users.add(&domain.User{Username: "other", Email: "other@example.com", Role: domain.RoleEmployee, Status: domain.UserStatusActive})

	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		HistoryRepo:    history,
		CommentRepo:    comments,
		AttachmentRepo: attachments,
		UserRepo:       users,
		Dispatcher:     dispatcher,
	})
	return &ticketFixture{
		svc:        svc,
		users:      users,
		tickets:    tickets,
		history:    history,
		dispatcher: dispatcher,
		admin:      admin,
		assignee:   assignee,
		other:      other,
	}
}

func (f *ticketFixture) createTicket(t *testing.T) *TicketDetails {
	t.Helper()
	details, err := f.svc.Create(context.Background(), f.admin, TicketCreateInput{
		Title:        "Fix login timeout",
		Description:  "Session drops after idle",
		Label:        "BUG",
		AssignedToID: f.assignee.ID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return details
}

func TestCreateTicketStartsInTodoWithSelfHistory(t *testing.T) {
	f := newTicketFixture()
	details := f.createTicket(t)

	if details.Ticket.Status != domain.TicketStatusTodo {
		t.Errorf("status = %q, want TODO", details.Ticket.Status)
	}
	if len(details.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(details.History))
	}
	entry := details.History[0]
	if entry.FromStatus != domain.TicketStatusTodo || entry.ToStatus != domain.TicketStatusTodo {
		t.Errorf("initial history entry = %s -> %s, want TODO -> TODO", entry.FromStatus, entry.ToStatus)
	}
	if entry.UpdatedByID != f.admin.ID {
		t.Errorf("initial history actor = %q, want creating admin", entry.UpdatedByID)
	}
}

func TestCreateTicketDeniedForEmployee(t *testing.T) {
	f := newTicketFixture()
	_, err := f.svc.Create(context.Background(), f.assignee, TicketCreateInput{
		Title:        "x",
		Description:  "y",
		Label:        "BUG",
		AssignedToID: f.assignee.ID,
	})
	if err == nil {
		t.Fatal("Create() allowed a non-admin")
	}
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("error = %v, want FORBIDDEN", err)
	}
}

func TestCreateTicketUnknownAssignee(t *testing.T) {
	f := newTicketFixture()
	_, err := f.svc.Create(context.Background(), f.admin, TicketCreateInput{
		Title:        "x",
		Description:  "y",
		Label:        "BUG",
		AssignedToID: "missing",
	})
	if err == nil {
		t.Fatal("Create() accepted an unknown assignee")
	}
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestTransitionStatusByAssigneeAppendsHistory(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	details, err := f.svc.TransitionStatus(context.Background(), f.assignee, created.Ticket.ID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("TransitionStatus() error = %v", err)
	}
	if details.Ticket.Status != domain.TicketStatusInProgress {
		t.Errorf("status = %q, want IN_PROGRESS", details.Ticket.Status)
	}
	if len(details.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(details.History))
	}
	last := details.History[len(details.History)-1]
	if last.FromStatus != domain.TicketStatusTodo || last.ToStatus != domain.TicketStatusInProgress {
		t.Errorf("history entry = %s -> %s, want TODO -> IN_PROGRESS", last.FromStatus, last.ToStatus)
	}
	if last.UpdatedByID != f.assignee.ID {
		t.Errorf("history actor = %q, want assignee", last.UpdatedByID)
	}
}

func TestTransitionStatusSameStatusIsNoOp(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)
	publishedBefore := len(f.dispatcher.published)

	details, err := f.svc.TransitionStatus(context.Background(), f.assignee, created.Ticket.ID, "TODO")
	if err != nil {
		t.Fatalf("TransitionStatus() error = %v", err)
	}
	if len(details.History) != 1 {
		t.Errorf("history length = %d, want 1 (no entry for same-status)", len(details.History))
	}
	if len(f.dispatcher.published) != publishedBefore {
		t.Error("same-status transition published an event")
	}
}

func TestTransitionStatusAdminOnlyStatuses(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	for _, target := range []string{"READY_TO_DEPLOY", "DEPLOYED_DONE"} {
		_, err := f.svc.TransitionStatus(context.Background(), f.assignee, created.Ticket.ID, target)
		if err == nil {
			t.Fatalf("assignee moved ticket to %s", target)
		}
		if !apperrors.IsCode(err, "FORBIDDEN") {
			t.Errorf("error = %v, want FORBIDDEN for %s", err, target)
		}
	}

	if _, err := f.svc.TransitionStatus(context.Background(), f.admin, created.Ticket.ID, "READY_TO_DEPLOY"); err != nil {
		t.Errorf("admin denied READY_TO_DEPLOY: %v", err)
	}
}

func TestTransitionStatusDeniedForNonAssignee(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	_, err := f.svc.TransitionStatus(context.Background(), f.other, created.Ticket.ID, "IN_PROGRESS")
	if err == nil {
		t.Fatal("non-assignee changed ticket status")
	}
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("error = %v, want FORBIDDEN", err)
	}
}

func TestTransitionStatusTerminalIsFrozen(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	if _, err := f.svc.TransitionStatus(context.Background(), f.admin, created.Ticket.ID, "DEPLOYED_DONE"); err != nil {
		t.Fatalf("TransitionStatus() to DEPLOYED_DONE error = %v", err)
	}

	_, err := f.svc.TransitionStatus(context.Background(), f.admin, created.Ticket.ID, "TODO")
	if err == nil {
		t.Fatal("terminal ticket accepted a transition")
	}
	if !apperrors.IsCode(err, "BAD_REQUEST") {
		t.Errorf("error = %v, want BAD_REQUEST", err)
	}
}

func TestTransitionStatusValidation(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	if _, err := f.svc.TransitionStatus(context.Background(), f.admin, created.Ticket.ID, ""); !apperrors.IsCode(err, "BAD_REQUEST") {
		t.Errorf("empty status error = %v, want BAD_REQUEST", err)
	}
	if _, err := f.svc.TransitionStatus(context.Background(), f.admin, created.Ticket.ID, "DONE"); !apperrors.IsCode(err, "BAD_REQUEST") {
		t.Errorf("invalid status error = %v, want BAD_REQUEST", err)
	}
	if _, err := f.svc.TransitionStatus(context.Background(), nil, created.Ticket.ID, "IN_PROGRESS"); !apperrors.IsCode(err, "UNAUTHENTICATED") {
		t.Errorf("nil actor error = %v, want UNAUTHENTICATED", err)
	}
}

func TestAddCommentByAssigneeAndAdmin(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	details, err := f.svc.AddComment(context.Background(), f.assignee, created.Ticket.ID, "looking into it")
	if err != nil {
		t.Fatalf("AddComment() by assignee error = %v", err)
	}
	if len(details.Comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(details.Comments))
	}

	details, err = f.svc.AddComment(context.Background(), f.admin, created.Ticket.ID, "thanks")
	if err != nil {
		t.Fatalf("AddComment() by admin error = %v", err)
	}
	if len(details.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(details.Comments))
	}

	_, err = f.svc.AddComment(context.Background(), f.other, created.Ticket.ID, "me too")
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("non-assignee comment error = %v, want FORBIDDEN", err)
	}
}

func TestListFiltersAndPagination(t *testing.T) {
	f := newTicketFixture()
	f.createTicket(t)
	if _, err := f.svc.Create(context.Background(), f.admin, TicketCreateInput{
		Title:        "Dark mode",
		Description:  "Add theme switch",
		Label:        "NEW_FEATURE",
		AssignedToID: f.other.ID,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tickets, total, err := f.svc.List(context.Background(), f.assignee, TicketListInput{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 2 || len(tickets) != 2 {
		t.Errorf("List() = %d/%d, want 2/2", len(tickets), total)
	}

	tickets, total, err = f.svc.List(context.Background(), f.assignee, TicketListInput{Label: "BUG"})
	if err != nil {
		t.Fatalf("List() label filter error = %v", err)
	}
	if total != 1 || len(tickets) != 1 {
		t.Errorf("label filter = %d/%d, want 1/1", len(tickets), total)
	}

	tickets, total, err = f.svc.List(context.Background(), f.assignee, TicketListInput{Search: "dark"})
	if err != nil {
		t.Fatalf("List() search error = %v", err)
	}
	if total != 1 || len(tickets) != 1 {
		t.Errorf("search = %d/%d, want 1/1", len(tickets), total)
	}

	if _, _, err := f.svc.List(context.Background(), f.assignee, TicketListInput{Status: "NOPE"}); !apperrors.IsCode(err, "BAD_REQUEST") {
		t.Errorf("invalid status filter error = %v, want BAD_REQUEST", err)
	}
	if _, _, err := f.svc.List(context.Background(), nil, TicketListInput{}); !apperrors.IsCode(err, "UNAUTHENTICATED") {
		t.Errorf("anonymous list error = %v, want UNAUTHENTICATED", err)
	}
}

func TestListDefaultPageReturnsNewestTickets(t *testing.T) {
	f := newTicketFixture()
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Create(context.Background(), f.admin, TicketCreateInput{
			Title:        "ticket",
			Description:  "body",
			Label:        "BUG",
			AssignedToID: f.assignee.ID,
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	// a fresh client's first request: no page given, page size 2
	tickets, total, err := f.svc.List(context.Background(), f.assignee, TicketListInput{PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(tickets) != 2 {
		t.Fatalf("default page = %d tickets, want 2", len(tickets))
	}
	if tickets[0].ID != "ticket-3" {
		t.Errorf("default page starts at %q, want the newest ticket-3", tickets[0].ID)
	}

	// explicit page 1 is the same page as the default
	pageOne, _, err := f.svc.List(context.Background(), f.assignee, TicketListInput{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("List() page 1 error = %v", err)
	}
	if len(pageOne) != 2 || pageOne[0].ID != tickets[0].ID {
		t.Errorf("page 1 = %v, want same as default page", pageOne)
	}

	// page 2 holds the remainder, with no overlap
	pageTwo, _, err := f.svc.List(context.Background(), f.assignee, TicketListInput{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("List() page 2 error = %v", err)
	}
	if len(pageTwo) != 1 {
		t.Fatalf("page 2 = %d tickets, want 1", len(pageTwo))
	}
	if pageTwo[0].ID != "ticket-1" {
		t.Errorf("page 2 = %q, want the oldest ticket-1", pageTwo[0].ID)
	}
}

func TestDeleteTicket(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	if err := f.svc.Delete(context.Background(), f.assignee, created.Ticket.ID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("employee delete error = %v, want FORBIDDEN", err)
	}
	if err := f.svc.Delete(context.Background(), f.admin, created.Ticket.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.svc.Get(context.Background(), f.admin, created.Ticket.ID); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("Get() after delete error = %v, want NOT_FOUND", err)
	}
}

func TestDownloadAttachmentAccess(t *testing.T) {
	f := newTicketFixture()
	details, err := f.svc.Create(context.Background(), f.admin, TicketCreateInput{
		Title:        "Crash report",
		Description:  "See attached log",
		Label:        "BUG",
		AssignedToID: f.assignee.ID,
		Attachments: []AttachmentInput{
			{FileName: "crash.log", ContentType: "text/plain", Data: []byte("panic at line 42")},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(details.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(details.Attachments))
	}
	attachmentID := details.Attachments[0].ID

	blob, err := f.svc.DownloadAttachment(context.Background(), f.assignee, details.Ticket.ID, attachmentID)
	if err != nil {
		t.Fatalf("DownloadAttachment() by assignee error = %v", err)
	}
	if string(blob.Data) != "panic at line 42" {
		t.Errorf("blob content = %q", blob.Data)
	}

	if _, err := f.svc.DownloadAttachment(context.Background(), f.other, details.Ticket.ID, attachmentID); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("non-assignee download error = %v, want FORBIDDEN", err)
	}
	if _, err := f.svc.DownloadAttachment(context.Background(), f.admin, details.Ticket.ID, "missing"); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("missing attachment error = %v, want NOT_FOUND", err)
	}
}

func TestPreviewTruncatesOnRuneBoundaries(t *testing.T) {
	tests := []struct {
		name string
		body string
		max  int
		want string
	}{
		{"short body unchanged", "all good", 80, "all good"},
		{"ascii truncated with ellipsis", "abcdefghij", 8, "abcde..."},
		{"trimmed before measuring", "  short  ", 80, "short"},
		{"multibyte truncated between runes", "éééééééééé", 8, "ééééé..."},
		{"cjk truncated between runes", "チケットのステータス更新", 8, "チケットの..."},
		{"tiny max keeps whole runes", "ééééé", 2, "éé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preview(tt.body, tt.max)
			if got != tt.want {
				t.Errorf("preview(%q, %d) = %q, want %q", tt.body, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("preview(%q, %d) produced invalid UTF-8", tt.body, tt.max)
			}
		})
	}
}

func TestUpdateTicketReassignmentPublishesEvent(t *testing.T) {
	f := newTicketFixture()
	created := f.createTicket(t)

	newAssignee := f.other.ID
	details, err := f.svc.Update(context.Background(), f.admin, created.Ticket.ID, TicketUpdateInput{
		AssignedToID: &newAssignee,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if details.Ticket.AssignedToID != newAssignee {
		t.Errorf("assignee = %q, want %q", details.Ticket.AssignedToID, newAssignee)
	}

	found := false
	for _, eventType := range f.dispatcher.eventTypes() {
		if eventType == events.EventTicketAssigned {
			found = true
		}
	}
	if !found {
		t.Error("reassignment did not publish ticket_assigned")
	}
}
