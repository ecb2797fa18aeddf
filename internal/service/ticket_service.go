package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Every mutation runs policy,
// executor and audit append inside the repository's per-ticket lock.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	executor   *lifecycle.Executor
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Clock      lifecycle.Clock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketListFilter narrows a list request inside the caller's scope.
type TicketListFilter struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		executor:   lifecycle.NewExecutor(deps.Clock),
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Now is the service clock, used by callers that derive SLA state.
func (s *TicketService) Now() time.Time {
	return s.executor.Now()
}

// CreateTicket files a new complaint on behalf of actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input lifecycle.CreateInput) (*domain.Ticket, error) {
	if actor.ID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.executor.Create(actor, input)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("reporter_id", ticket.ReporterID),
		zap.String("priority", string(ticket.Priority)))
	steps := make([]lifecycle.Step, 0, len(ticket.History))
	for _, entry := range ticket.History {
		steps = append(steps, lifecycle.Step{Entry: entry, Status: ticket.Status, AssigneeID: ticket.AssigneeID})
	}
	s.publishSteps(ctx, actor, ticket, steps)
	return ticket, nil
}

// ListTickets returns the tickets in actor's scope: customers see what they
// reported, support sees what is assigned to them, admins see everything.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	scope, err := lifecycle.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
		}
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		ReporterID: scope.ReporterID,
		AssigneeID: scope.AssigneeID,
		Statuses:   filter.Statuses,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// GetTicket loads a ticket if actor may view it.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanView(actor, ticket).Err(); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateTicket applies change to the ticket if the policy allows it. A denied
// or failed update leaves the ticket and its history untouched. Events for the
// recorded steps are published after the change is persisted.
func (s *TicketService) UpdateTicket(ctx context.Context, actor domain.Actor, id string, change lifecycle.Change) (*domain.Ticket, error) {
	if change.Status != nil && !change.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *change.Status})
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("ticket", nil)
	}

	var recorded []lifecycle.Step
	ticket, err := s.tickets.Mutate(ctx, id, func(ticket *domain.Ticket) (bool, error) {
		if err := lifecycle.CanMutate(actor, ticket, change).Err(); err != nil {
			return false, err
		}
		if err := s.validateAssignee(ctx, change.AssignedTo); err != nil {
			return false, err
		}
		recorded = s.executor.Apply(actor, ticket, change)
		lifecycle.Append(ticket, lifecycle.Entries(recorded)...)
		return len(recorded) > 0, nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeUnauthorized) || apperrors.HasCode(err, apperrors.CodePrecondition) {
			s.logger.Info("ticket update denied",
				zap.String("ticket_id", id),
				zap.String("actor_id", actor.ID),
				zap.String("role", string(actor.Role)),
				zap.Error(err))
		}
		return nil, s.mapRepoError(err)
	}

	s.publishSteps(ctx, actor, ticket, recorded)
	return ticket, nil
}

// Stats summarizes the tickets in actor's list scope.
func (s *TicketService) Stats(ctx context.Context, actor domain.Actor) (repository.TicketStats, error) {
	scope, err := lifecycle.ScopeFor(actor)
	if err != nil {
		return repository.TicketStats{}, err
	}
	stats, err := s.tickets.Stats(ctx, repository.TicketFilter{
		ReporterID: scope.ReporterID,
		AssigneeID: scope.AssigneeID,
	}, s.executor.Now())
	if err != nil {
		return repository.TicketStats{}, apperrors.NewInternalError(err)
	}
	return stats, nil
}

// validateAssignee runs after CanMutate; denied callers get the policy error.
func (s *TicketService) validateAssignee(ctx context.Context, assigneeID *string) error {
	if assigneeID == nil {
		return nil
	}
	invalid := apperrors.NewValidationError("assignee must be a support or admin user", map[string]any{"assignedTo": *assigneeID})
	if _, err := uuid.Parse(*assigneeID); err != nil {
		return invalid
	}
	assignee, err := s.users.GetByID(ctx, *assigneeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return invalid
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !assignee.Role.IsStaff() {
		return invalid
	}
	return nil
}

func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	return ticket, nil
}

func (s *TicketService) mapRepoError(err error) error {
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("ticket", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}

// publishSteps emits one event per step, carrying the state that step left
// rather than the final state of the request.
func (s *TicketService) publishSteps(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, steps []lifecycle.Step) {
	if s.dispatcher == nil {
		return
	}
	for _, step := range steps {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTypeFor(step.Entry.Action),
			TicketID:  ticket.ID,
			Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
			Timestamp: step.Entry.Timestamp,
			Payload: events.TicketChangedPayload{
				Status:     step.Status,
				Priority:   ticket.Priority,
				ReporterID: ticket.ReporterID,
				AssigneeID: step.AssigneeID,
				Entry:      step.Entry,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}
}
