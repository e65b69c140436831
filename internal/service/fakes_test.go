package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inspiringwave/ticket-management/internal/domain"
	"github.com/inspiringwave/ticket-management/internal/events"
	"github.com/inspiringwave/ticket-management/internal/repository"
)

// In-memory repository fakes. Not safe for concurrent use; tests drive them
// from a single goroutine.

type fakeUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) add(user *domain.User) *domain.User {
	if user.ID == "" {
		r.nextID++
		user.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	copied := *user
	r.users[user.ID] = &copied
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) ListByStatus(_ context.Context, status domain.UserStatus) ([]domain.User, error) {
	out := []domain.User{}
	for _, user := range r.users {
		if user.Status == status {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetActiveSession(_ context.Context, userID string, sessionID *string) error {
	user, ok := r.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.ActiveSessionID = sessionID
	return nil
}

type fakeHistoryRepo struct {
	entries []domain.StatusHistoryEntry
	nextID  int
}

func (r *fakeHistoryRepo) Append(_ context.Context, entry *domain.StatusHistoryEntry) error {
	r.nextID++
	entry.ID = fmt.Sprintf("hist-%d", r.nextID)
	entry.UpdatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.StatusHistoryEntry, error) {
	out := []domain.StatusHistoryEntry{}
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeCommentRepo struct {
	comments []domain.Comment
	nextID   int
}

func (r *fakeCommentRepo) Append(_ context.Context, comment *domain.Comment) error {
	r.nextID++
	comment.ID = fmt.Sprintf("comment-%d", r.nextID)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	out := []domain.Comment{}
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			out = append(out, comment)
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	attachments map[string]*domain.Attachment
	nextID      int
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: map[string]*domain.Attachment{}}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.nextID++
	attachment.ID = fmt.Sprintf("att-%d", r.nextID)
	attachment.CreatedAt = time.Now()
	copied := *attachment
	r.attachments[attachment.ID] = &copied
	return nil
}

func (r *fakeAttachmentRepo) FindByID(_ context.Context, id string) (*domain.Attachment, error) {
	attachment, ok := r.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *attachment
	return &copied, nil
}

func (r *fakeAttachmentRepo) ListMetaByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	out := []domain.Attachment{}
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			meta := *attachment
			meta.Data = nil
			out = append(out, meta)
		}
	}
	return out, nil
}

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	order   []string
	history *fakeHistoryRepo
	nextID  int
}

func newFakeTicketRepo(history *fakeHistoryRepo) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}, history: history}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) FindByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	for i, tid := range r.order {
		if tid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListWithFilter mirrors the store's created_at DESC listing order.
func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	matched := []domain.Ticket{}
	for i := len(r.order) - 1; i >= 0; i-- {
		ticket := r.tickets[r.order[i]]
		if filter.Search != nil {
			needle := strings.ToLower(strings.TrimSpace(*filter.Search))
			if !strings.Contains(strings.ToLower(ticket.Title), needle) &&
				!strings.Contains(strings.ToLower(ticket.Description), needle) {
				continue
			}
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Label != nil && ticket.Label != *filter.Label {
			continue
		}
		if filter.AssignedToID != nil && ticket.AssignedToID != *filter.AssignedToID {
			continue
		}
		matched = append(matched, *ticket)
	}
	total := len(matched)
	if filter.Offset >= len(matched) {
		return []domain.Ticket{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *fakeTicketRepo) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, ticket := range r.tickets {
		if ticket.CreatedByID == userID || ticket.AssignedToID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) TransitionStatus(ctx context.Context, ticketID, actorID string, next domain.TicketStatus, guard func(current *domain.Ticket) error) (*domain.Ticket, bool, error) {
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return nil, false, pgx.ErrNoRows
	}
	snapshot := *ticket
	if err := guard(&snapshot); err != nil {
		return nil, false, err
	}
	if ticket.Status == next {
		copied := *ticket
		return &copied, false, nil
	}
	from := ticket.Status
	ticket.Status = next
	ticket.UpdatedAt = time.Now()
	if r.history != nil {
		_ = r.history.Append(ctx, &domain.StatusHistoryEntry{
			TicketID:    ticketID,
			FromStatus:  from,
			ToStatus:    next,
			UpdatedByID: actorID,
		})
	}
	copied := *ticket
	return &copied, true, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(d.published))
	for _, event := range d.published {
		out = append(out, event.Type)
	}
	return out
}
