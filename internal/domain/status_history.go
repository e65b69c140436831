package domain

import "time"

// StatusHistoryEntry is an immutable audit trail record. Entries are
// append-only and live exactly as long as the owning ticket. Ticket creation
// records a self-transition (from == to == TODO) so history is never empty.
type StatusHistoryEntry struct {
	ID          string
	TicketID    string
	FromStatus  TicketStatus
	ToStatus    TicketStatus
	UpdatedByID string
	UpdatedAt   time.Time
}
