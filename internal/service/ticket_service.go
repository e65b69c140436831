package service

import (
	"context"
	"errors"
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

// TicketService coordinates the ticket lifecycle: creation, updates, the
// status state machine, comments, and attachment access.
type TicketService struct {
	tickets     repository.TicketRepository
	history     repository.HistoryRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	HistoryRepo    repository.HistoryRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		history:     deps.HistoryRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// AttachmentInput carries an opaque uploaded blob plus its metadata. The
// content is stored as-is and never inspected.
type AttachmentInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	Label          string
	AssignedToID   string
	Attachments    []AttachmentInput
	AttachmentURLs []string
}

// TicketUpdateInput describes a partial admin update; nil fields are left
// untouched.
type TicketUpdateInput struct {
	Title        *string
	Description  *string
	Label        *string
	AssignedToID *string
}

// TicketListInput carries the raw filter strings from the boundary. Blank
// values mean "match everything"; invalid enum values are rejected.
type TicketListInput struct {
	Search       string
	Status       string
	Label        string
	AssignedToID string
	Page         int
	PageSize     int
}

// TicketDetails is the full ticket view returned by reads and mutations.
type TicketDetails struct {
	Ticket      *domain.Ticket
	History     []domain.StatusHistoryEntry
	Comments    []domain.Comment
	Attachments []domain.Attachment
}

// List returns a page of tickets matching the AND-composed filters.
func (s *TicketService) List(ctx context.Context, actor *domain.User, input TicketListInput) ([]domain.Ticket, int, error) {
	if err := auth.CanPerform(actor, auth.ActionListTickets, nil); err != nil {
		return nil, 0, err
	}

	filter := repository.TicketFilter{}
	if search := strings.TrimSpace(input.Search); search != "" {
		filter.Search = &search
	}
	if raw := strings.TrimSpace(input.Status); raw != "" {
		status, ok := domain.ParseTicketStatus(raw)
		if !ok {
			return nil, 0, apperrors.NewBadRequest("invalid status: "+raw, nil)
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(input.Label); raw != "" {
		label, ok := domain.ParseTicketLabel(raw)
		if !ok {
			return nil, 0, apperrors.NewBadRequest("invalid label: "+raw, nil)
		}
		filter.Label = &label
	}
	if id := strings.TrimSpace(input.AssignedToID); id != "" {
		filter.AssignedToID = &id
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	// pages are 1-based; page 1 starts at offset 0
	page := input.Page
	if page < 1 {
		page = 1
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	tickets, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// Get returns the full ticket view including history, comments, and
// attachment metadata.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*TicketDetails, error) {
	if err := auth.CanPerform(actor, auth.ActionViewTicket, nil); err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, ticket)
}

// Create creates a ticket (admin only) in the initial TODO state and records
// the self-transition history entry that marks the starting point.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*TicketDetails, error) {
	if err := auth.CanPerform(actor, auth.ActionCreateTicket, nil); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	label, ok := domain.ParseTicketLabel(input.Label)
	if !ok {
		return nil, apperrors.NewBadRequest("invalid label: "+input.Label, nil)
	}

	assignee, err := s.users.FindByID(ctx, input.AssignedToID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assigned employee", map[string]any{"user_id": input.AssignedToID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Label:          label,
		Status:         domain.TicketStatusTodo,
		CreatedByID:    actor.ID,
		AssignedToID:   assignee.ID,
		AttachmentURLs: input.AttachmentURLs,
	}
	if ticket.AttachmentURLs == nil {
		ticket.AttachmentURLs = []string{}
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	// history starts with a self-transition instead of staying empty
	initial := &domain.StatusHistoryEntry{
		TicketID:    ticket.ID,
		FromStatus:  domain.TicketStatusTodo,
		ToStatus:    domain.TicketStatusTodo,
		UpdatedByID: actor.ID,
	}
	if err := s.history.Append(ctx, initial); err != nil {
		return nil, apperrors.MapError(err)
	}

	for _, att := range input.Attachments {
		if len(att.Data) == 0 {
			continue
		}
		record := &domain.Attachment{
			TicketID:    ticket.ID,
			FileName:    orDefault(att.FileName, "file"),
			ContentType: orDefault(att.ContentType, "application/octet-stream"),
			SizeBytes:   int64(len(att.Data)),
			Data:        att.Data,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publish(ctx, actor.ID, events.EventTicketCreated, events.TicketCreatedPayload{
		TicketID:     ticket.ID,
		Title:        ticket.Title,
		Label:        ticket.Label,
		AssignedToID: ticket.AssignedToID,
	})

	return s.details(ctx, ticket)
}

// Update applies a partial admin edit to title, description, label, or
// assignee.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*TicketDetails, error) {
	if err := auth.CanPerform(actor, auth.ActionUpdateTicket, nil); err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Label != nil {
		label, ok := domain.ParseTicketLabel(*input.Label)
		if !ok {
			return nil, apperrors.NewBadRequest("invalid label: "+*input.Label, nil)
		}
		ticket.Label = label
	}

	reassigned := false
	if input.AssignedToID != nil && *input.AssignedToID != ticket.AssignedToID {
		assignee, err := s.users.FindByID(ctx, *input.AssignedToID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assigned employee", map[string]any{"user_id": *input.AssignedToID})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.AssignedToID = assignee.ID
		reassigned = true
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if reassigned {
		s.publish(ctx, actor.ID, events.EventTicketAssigned, events.TicketAssignedPayload{
			TicketID:     ticket.ID,
			AssignedToID: ticket.AssignedToID,
		})
	}
	return s.details(ctx, ticket)
}

// Delete removes a ticket and its owned history, comments, and attachments.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, ticketID string) error {
	if err := auth.CanPerform(actor, auth.ActionDeleteTicket, nil); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	s.publish(ctx, actor.ID, events.EventTicketDeleted, events.TicketDeletedPayload{TicketID: ticketID})
	return nil
}

// TransitionStatus moves a ticket through the state machine. Who may reach
// which state is constrained; the path between states is not.
func (s *TicketService) TransitionStatus(ctx context.Context, actor *domain.User, ticketID, rawStatus string) (*TicketDetails, error) {
	if strings.TrimSpace(rawStatus) == "" {
		return nil, apperrors.NewBadRequest("status is required", nil)
	}
	next, ok := domain.ParseTicketStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewBadRequest("invalid status: "+rawStatus, nil)
	}
	if actor == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}

	var from domain.TicketStatus
	ticket, changed, err := s.tickets.TransitionStatus(ctx, ticketID, actor.ID, next, func(current *domain.Ticket) error {
		from = current.Status
		if current.Status.IsTerminal() {
			return apperrors.NewBadRequest("once ticket is Deployed/Done, status cannot be changed", nil)
		}
		return auth.CanSetStatus(actor, current, next)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if changed {
		s.publish(ctx, actor.ID, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
			TicketID:   ticket.ID,
			FromStatus: from,
			ToStatus:   next,
		})
	}
	return s.details(ctx, ticket)
}

// AddComment appends a comment; allowed for the admin or the assignee.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string) (*TicketDetails, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanPerform(actor, auth.ActionAddComment, ticket); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  strings.TrimSpace(content),
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor.ID, events.EventCommentAdded, events.CommentAddedPayload{
		TicketID:  ticket.ID,
		CommentID: comment.ID,
		Preview:   preview(comment.Content, 80),
	})
	return s.details(ctx, ticket)
}

// DownloadAttachment returns the stored blob; allowed for the admin or the
// assignee of the owning ticket.
func (s *TicketService) DownloadAttachment(ctx context.Context, actor *domain.User, ticketID, attachmentID string) (*domain.Attachment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := auth.CanPerform(actor, auth.ActionDownloadAttachment, ticket); err != nil {
		return nil, err
	}

	attachment, err := s.attachments.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if attachment.TicketID != ticket.ID {
		return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
	}
	return attachment, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) details(ctx context.Context, ticket *domain.Ticket) (*TicketDetails, error) {
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListMetaByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketDetails{
		Ticket:      ticket,
		History:     history,
		Comments:    comments,
		Attachments: attachments,
	}, nil
}

func (s *TicketService) publish(ctx context.Context, actorID string, eventType events.EventType, payload interface{}) {
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

// preview truncates on rune boundaries so multi-byte content stays valid.
func preview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func orDefault(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
