package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// MemoryTicketRepository keeps tickets in process memory. It is used when no
// database is configured and in tests. Lookups of missing tickets return
// pgx.ErrNoRows like the Postgres implementation.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
	locks   map[string]*sync.Mutex
}

// NewMemoryTicketRepository builds an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]*domain.Ticket),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if _, exists := r.tickets[ticket.ID]; exists {
		return errors.New("ticket already exists")
	}
	r.tickets[ticket.ID] = ticket.Clone()
	r.locks[ticket.ID] = &sync.Mutex{}
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket.Clone(), nil
}

// Mutate holds the ticket's own lock while fn runs, so writers of different
// tickets never wait on each other.
func (r *MemoryTicketRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Ticket, error) {
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}

	lock.Lock()
	defer lock.Unlock()

	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := fn(ticket)
	if err != nil {
		return nil, err
	}
	if changed {
		r.mu.Lock()
		r.tickets[id] = ticket.Clone()
		r.mu.Unlock()
	}
	return ticket, nil
}

func (r *MemoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	matched := r.matching(filter)
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *MemoryTicketRepository) Stats(_ context.Context, filter TicketFilter, now time.Time) (TicketStats, error) {
	stats := TicketStats{ByStatus: map[domain.TicketStatus]int{}}
	for _, ticket := range r.matching(filter) {
		stats.ByStatus[ticket.Status]++
		stats.Total++
		if ticket.SLABreached(now) {
			stats.Breached++
		}
	}
	return stats, nil
}

func (r *MemoryTicketRepository) matching(filter TicketFilter) []domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make(map[domain.TicketStatus]struct{}, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses[status] = struct{}{}
	}

	result := []domain.Ticket{}
	for _, ticket := range r.tickets {
		if filter.ReporterID != nil && ticket.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.AssigneeID != nil && !ticket.IsAssignedTo(*filter.AssigneeID) {
			continue
		}
		if len(statuses) > 0 {
			if _, ok := statuses[ticket.Status]; !ok {
				continue
			}
		}
		result = append(result, *ticket.Clone())
	}
	return result
}

// MemoryUserRepository keeps accounts in process memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository builds an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return errors.New("email already registered")
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryUserRepository) ListByRoles(_ context.Context, roles ...domain.Role) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	result := []domain.User{}
	for _, user := range r.users {
		if len(allowed) > 0 {
			if _, ok := allowed[user.Role]; !ok {
				continue
			}
		}
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
