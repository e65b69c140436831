package domain

import "time"

// Comment is an append-only note on a ticket, authored by the admin or the
// assigned employee.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
