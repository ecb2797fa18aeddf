package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// CreateInput describes a new complaint.
type CreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// Validate checks the required creation fields.
func (in CreateInput) Validate() error {
	missing := []string{}
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if in.Category == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("please include all fields", map[string]any{"missing": missing})
	}
	if !in.Category.Valid() {
		return apperrors.NewValidationError("invalid category", map[string]any{"category": in.Category})
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": in.Priority})
	}
	return nil
}

// Executor applies permitted changes to tickets and derives their history
// entries. It never checks authorization; callers run CanMutate first.
type Executor struct {
	now Clock
}

// NewExecutor builds an executor reading time from clock.
func NewExecutor(clock Clock) *Executor {
	if clock == nil {
		clock = SystemClock
	}
	return &Executor{now: clock}
}

// Now exposes the executor's clock reading.
func (e *Executor) Now() time.Time {
	return e.now()
}

// Create builds a new ticket reported by actor, with its Created entry
// already appended.
func (e *Executor) Create(actor domain.Actor, in CreateInput) (*domain.Ticket, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.TicketPriorityLow
	}
	now := e.now()
	ticket := &domain.Ticket{
		ReporterID:  actor.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		SLADeadline: SLADeadline(priority, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	Append(ticket, domain.HistoryEntry{
		Action:      domain.ActionCreated,
		PerformedBy: actor.ID,
		Details:     fmt.Sprintf("created with priority %s", priority),
		Timestamp:   now,
	})
	return ticket, nil
}

// Step is one semantic change: the entry recording it and the ticket state it
// left behind.
type Step struct {
	Entry      domain.HistoryEntry
	Status     domain.TicketStatus
	AssigneeID *string
}

// Entries returns the history entries of steps, in order.
func Entries(steps []Step) []domain.HistoryEntry {
	if len(steps) == 0 {
		return nil
	}
	entries := make([]domain.HistoryEntry, 0, len(steps))
	for _, step := range steps {
		entries = append(entries, step.Entry)
	}
	return entries
}

// Apply mutates ticket according to change and returns one step per semantic
// change, in the order applied. Assignment is applied before status so an
// explicit status in the same request is the final one.
func (e *Executor) Apply(actor domain.Actor, ticket *domain.Ticket, change Change) []Step {
	if change.IsEmpty() {
		return nil
	}
	now := e.now()
	steps := make([]Step, 0, 2)

	if change.AssignedTo != nil {
		assignee := *change.AssignedTo
		ticket.AssigneeID = &assignee
		ticket.Status = domain.TicketStatusInProgress
		steps = append(steps, stepOf(ticket, domain.HistoryEntry{
			Action:      domain.ActionAssigned,
			PerformedBy: actor.ID,
			Details:     fmt.Sprintf("assigned to %s", assignee),
			Timestamp:   now,
		}))
	}
	if change.Status != nil {
		ticket.Status = *change.Status
		steps = append(steps, stepOf(ticket, domain.HistoryEntry{
			Action:      domain.ActionStatusChanged,
			PerformedBy: actor.ID,
			Details:     fmt.Sprintf("status changed to %s", *change.Status),
			Timestamp:   now,
		}))
	}
	ticket.UpdatedAt = now
	return steps
}

func stepOf(ticket *domain.Ticket, entry domain.HistoryEntry) Step {
	step := Step{Entry: entry, Status: ticket.Status}
	if ticket.AssigneeID != nil {
		assignee := *ticket.AssigneeID
		step.AssigneeID = &assignee
	}
	return step
}
