package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inspiringwave/ticket-management/internal/domain"
)

// TicketFilter captures optional listing predicates. Absent (nil) fields
// match everything; the predicates are combined with AND, so the result is
// the same regardless of which filters are supplied in which order.
type TicketFilter struct {
	Search       *string
	Status       *domain.TicketStatus
	Label        *domain.TicketLabel
	AssignedToID *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	FindByID(ctx context.Context, id string) (*domain.Ticket, error)
	// Delete removes the ticket together with its owned history entries,
	// comments, and attachments in one transaction.
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	// CountByUser counts tickets where the user is creator or assignee.
	CountByUser(ctx context.Context, userID string) (int, error)
	// TransitionStatus applies a status change as one atomic
	// read-validate-append: the ticket row is locked, guard runs against the
	// locked state, and the status update plus history entry commit together.
	// A transition to the current status is a no-op that writes nothing.
	// The returned bool reports whether the status actually changed.
	TransitionStatus(ctx context.Context, ticketID, actorID string, next domain.TicketStatus, guard func(current *domain.Ticket) error) (*domain.Ticket, bool, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, label, status, created_by_id, assigned_to_id, attachment_urls, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, label, status, created_by_id, assigned_to_id, attachment_urls)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Label,
		ticket.Status,
		ticket.CreatedByID,
		ticket.AssignedToID,
		ticket.AttachmentURLs,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, label=$3, assigned_to_id=$4, attachment_urls=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Label,
		ticket.AssignedToID,
		ticket.AttachmentURLs,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, query := range []string{
		`DELETE FROM ticket_status_history WHERE ticket_id=$1`,
		`DELETE FROM comments WHERE ticket_id=$1`,
		`DELETE FROM attachments WHERE ticket_id=$1`,
	} {
		if _, err := tx.Exec(ctx, query, id); err != nil {
			return err
		}
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where, args := buildTicketFilterClauses(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, 0, err
		}
		result = append(result, ticket)
	}
	return result, total, rows.Err()
}

// buildTicketFilterClauses renders the AND-composed WHERE clause. Each absent
// predicate contributes nothing, so any subset of filters in any order
// yields the same clause set.
func buildTicketFilterClauses(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Label != nil {
		args = append(args, *filter.Label)
		clauses = append(clauses, fmt.Sprintf("label=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func (r *ticketRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE created_by_id=$1 OR assigned_to_id=$1`, userID,
	).Scan(&count)
	return count, err
}

func (r *ticketRepository) TransitionStatus(ctx context.Context, ticketID, actorID string, next domain.TicketStatus, guard func(current *domain.Ticket) error) (*domain.Ticket, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var ticket domain.Ticket
	if err := scanTicket(tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, ticketID), &ticket); err != nil {
		return nil, false, err
	}

	if guard != nil {
		if err := guard(&ticket); err != nil {
			return nil, false, err
		}
	}

	if ticket.Status == next {
		// idempotent no-op: no status write, no history entry
		return &ticket, false, tx.Commit(ctx)
	}

	from := ticket.Status
	if err := tx.QueryRow(ctx,
		`UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`,
		next, ticketID,
	).Scan(&ticket.UpdatedAt); err != nil {
		return nil, false, err
	}
	ticket.Status = next

	if _, err := tx.Exec(ctx,
		`INSERT INTO ticket_status_history (ticket_id, from_status, to_status, updated_by_id) VALUES ($1,$2,$3,$4)`,
		ticketID, from, next, actorID,
	); err != nil {
		return nil, false, err
	}

	return &ticket, true, tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Label,
		&ticket.Status,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.AttachmentURLs,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
