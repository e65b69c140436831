package auth

import (
	"github.com/inspiringwave/ticket-management/internal/domain"
	apperrors "github.com/inspiringwave/ticket-management/pkg/util/errorutil"
)

// Action enumerates policy-gated operations.
type Action string

const (
	ActionListTickets        Action = "tickets.list"
	ActionViewTicket         Action = "tickets.view"
	ActionCreateTicket       Action = "tickets.create"
	ActionUpdateTicket       Action = "tickets.update"
	ActionDeleteTicket       Action = "tickets.delete"
	ActionUpdateTicketStatus Action = "tickets.update_status"
	ActionAddComment         Action = "tickets.comment"
	ActionDownloadAttachment Action = "tickets.download_attachment"
	ActionManageUsers        Action = "users.manage"
)

// CanPerform is the pure authorization decision: no I/O, no ambient state.
// The ticket argument is required only for ticket-scoped actions; passing nil
// for those denies any non-admin. A nil actor fails as unauthenticated, which
// is distinct from an authenticated actor denied by policy.
func CanPerform(actor *domain.User, action Action, ticket *domain.Ticket) error {
	if actor == nil {
		return apperrors.NewUnauthenticated("authentication required")
	}

	switch action {
	case ActionListTickets, ActionViewTicket:
		return nil
	case ActionCreateTicket, ActionUpdateTicket, ActionDeleteTicket, ActionManageUsers:
		if !actor.IsAdmin() {
			return apperrors.NewForbidden("only admin can perform this action")
		}
		return nil
	case ActionUpdateTicketStatus, ActionAddComment, ActionDownloadAttachment:
		if actor.IsAdmin() {
			return nil
		}
		if ticket != nil && ticket.AssignedToID == actor.ID {
			return nil
		}
		return apperrors.NewForbidden("only admin or the assigned employee can perform this action")
	}
	return apperrors.NewForbidden("unknown action")
}

// CanSetStatus layers the admin-only status rule on top of CanPerform: the
// two late-stage statuses are reachable only by an admin, even when the actor
// is the assignee.
func CanSetStatus(actor *domain.User, ticket *domain.Ticket, next domain.TicketStatus) error {
	if err := CanPerform(actor, ActionUpdateTicketStatus, ticket); err != nil {
		return err
	}
	if next.AdminOnly() && !actor.IsAdmin() {
		return apperrors.NewForbidden("only admin can move ticket to Ready To Deploy or Deployed/Done")
	}
	return nil
}
