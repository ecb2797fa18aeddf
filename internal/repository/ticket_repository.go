package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/persistence"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// TicketFilter captures list parameters.
type TicketFilter struct {
	ReporterID *string
	AssigneeID *string
	Statuses   []domain.TicketStatus
	Limit      int
	Offset     int
}

// TicketStats aggregates ticket counts for dashboards.
type TicketStats struct {
	Total    int
	ByStatus map[domain.TicketStatus]int
	Breached int
}

// MutateFunc edits the locked ticket in place and reports whether anything
// changed. Returning an error or false leaves the stored ticket untouched.
type MutateFunc func(ticket *domain.Ticket) (changed bool, err error)

// TicketRepository encapsulates ticket persistence. Mutate serializes
// concurrent writers of the same ticket and persists the mutated fields
// together with the newly appended history entries.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Stats(ctx context.Context, filter TicketFilter, now time.Time) (TicketStats, error)
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, reporter_id, assignee_id, title, description, category, priority, status,
               sla_deadline, history, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (reporter_id, assignee_id, title, description, category, priority, status,
                             sla_deadline, history, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.ReporterID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.SLADeadline,
		ticket.History,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return fetchSingle(ctx, r.pool, query, id)
}

// Mutate locks the ticket row for the duration of fn. Only the entries fn
// appended are written, concatenated onto the stored history, so earlier
// entries are never rewritten.
func (r *ticketRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error) {
	var result *domain.Ticket
	err := persistence.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
		ticket, err := fetchSingle(ctx, tx, query, id)
		if err != nil {
			return err
		}
		before := len(ticket.History)
		changed, err := fn(ticket)
		if err != nil {
			return err
		}
		result = ticket
		if !changed {
			return nil
		}

		appended := ticket.History[before:]
		if appended == nil {
			appended = []domain.HistoryEntry{}
		}
		const update = `
            UPDATE tickets SET assignee_id=$1, status=$2, history = history || $3::jsonb, updated_at=$4
            WHERE id=$5`
		cmd, err := tx.Exec(ctx, update,
			ticket.AssigneeID,
			ticket.Status,
			appended,
			ticket.UpdatedAt,
			ticket.ID,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func fetchSingle(ctx context.Context, q rowQuerier, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := q.QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.ReporterID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.SLADeadline,
		&ticket.History,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := ticketWhere(filter)
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Stats(ctx context.Context, filter TicketFilter, now time.Time) (TicketStats, error) {
	where, args := ticketWhere(filter)
	args = append(args, now)
	query := fmt.Sprintf(`
        SELECT status, COUNT(*),
               COUNT(*) FILTER (WHERE sla_deadline < $%d AND status NOT IN ('Resolved', 'Closed'))
        FROM tickets WHERE %s GROUP BY status`, len(args), where)

	stats := TicketStats{ByStatus: map[domain.TicketStatus]int{}}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status   domain.TicketStatus
			count    int
			breached int
		)
		if err := rows.Scan(&status, &count, &breached); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
		stats.Breached += breached
	}
	return stats, rows.Err()
}

func ticketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	return strings.Join(clauses, " AND "), args
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ReporterID,
			&ticket.AssigneeID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.SLADeadline,
			&ticket.History,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
