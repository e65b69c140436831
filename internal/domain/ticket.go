package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. DEPLOYED_DONE is
// terminal: once reached, no further transition is permitted.
type TicketStatus string

const (
	TicketStatusTodo          TicketStatus = "TODO"
	TicketStatusInProgress    TicketStatus = "IN_PROGRESS"
	TicketStatusInReview      TicketStatus = "IN_REVIEW"
	TicketStatusReadyToDeploy TicketStatus = "READY_TO_DEPLOY"
	TicketStatusDeployedDone  TicketStatus = "DEPLOYED_DONE"
)

// IsTerminal reports whether no further transition is permitted.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusDeployedDone
}

// AdminOnly reports whether only an admin may set this status, even when the
// actor is the assignee.
func (s TicketStatus) AdminOnly() bool {
	return s == TicketStatusReadyToDeploy || s == TicketStatusDeployedDone
}

// ParseTicketStatus validates a status string.
func ParseTicketStatus(s string) (TicketStatus, bool) {
	switch TicketStatus(s) {
	case TicketStatusTodo, TicketStatusInProgress, TicketStatusInReview,
		TicketStatusReadyToDeploy, TicketStatusDeployedDone:
		return TicketStatus(s), true
	}
	return "", false
}

// TicketLabel categorizes the kind of work a ticket covers.
type TicketLabel string

const (
	TicketLabelNewFeature  TicketLabel = "NEW_FEATURE"
	TicketLabelBug         TicketLabel = "BUG"
	TicketLabelImprovement TicketLabel = "IMPROVEMENT"
)

// ParseTicketLabel validates a label string.
func ParseTicketLabel(s string) (TicketLabel, bool) {
	switch TicketLabel(s) {
	case TicketLabelNewFeature, TicketLabelBug, TicketLabelImprovement:
		return TicketLabel(s), true
	}
	return "", false
}

// Ticket is the aggregate for tracked work items. CreatedByID is immutable
// after creation; AssignedToID changes only through admin updates.
type Ticket struct {
	ID             string
	Title          string
	Description    string
	Label          TicketLabel
	Status         TicketStatus
	CreatedByID    string
	AssignedToID   string
	AttachmentURLs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Attachment stores an opaque byte blob plus metadata. The content is never
// parsed; it is recorded on upload and streamed back on download.
type Attachment struct {
	ID          string
	TicketID    string
	FileName    string
	ContentType string
	SizeBytes   int64
	Data        []byte
	CreatedAt   time.Time
}
