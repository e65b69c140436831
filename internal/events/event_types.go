package events

import (
	"time"

	"github.com/inspiringwave/ticket-management/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventCommentAdded        EventType = "comment_added"
	EventUserApproved        EventType = "user_approved"
	EventUserDeclined        EventType = "user_declined"
	EventUserRoleChanged     EventType = "user_role_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID     string             `json:"ticket_id"`
	Title        string             `json:"title"`
	Label        domain.TicketLabel `json:"label"`
	AssignedToID string             `json:"assigned_to_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID   string              `json:"ticket_id"`
	FromStatus domain.TicketStatus `json:"from_status"`
	ToStatus   domain.TicketStatus `json:"to_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketID     string `json:"ticket_id"`
	AssignedToID string `json:"assigned_to_id"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketID string `json:"ticket_id"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	TicketID  string `json:"ticket_id"`
	CommentID string `json:"comment_id"`
	Preview   string `json:"preview"`
}

// UserLifecyclePayload payload for approval, decline, and role changes.
type UserLifecyclePayload struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role,omitempty"`
}
