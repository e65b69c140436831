package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inspiringwave/ticket-management/internal/domain"
)

// HistoryRepository stores audit entries. Entries are append-only; the only
// deletion path is the owning ticket's removal.
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistoryEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusHistoryEntry, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Append(ctx context.Context, entry *domain.StatusHistoryEntry) error {
	const query = `
        INSERT INTO ticket_status_history (ticket_id, from_status, to_status, updated_by_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID,
		entry.FromStatus,
		entry.ToStatus,
		entry.UpdatedByID,
	).Scan(&entry.ID, &entry.UpdatedAt)
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, from_status, to_status, updated_by_id, updated_at
        FROM ticket_status_history WHERE ticket_id=$1 ORDER BY updated_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.UpdatedByID,
			&entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
