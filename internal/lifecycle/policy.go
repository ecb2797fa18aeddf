package lifecycle

import (
	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// DenyReason explains why the policy refused a request.
type DenyReason string

const (
	ReasonNotAuthorized   DenyReason = "not authorized"
	ReasonNotReadyToClose DenyReason = "ticket not ready to close"
	ReasonNotAssigned     DenyReason = "ticket not assigned to you"
)

// Decision is the outcome of a policy check: Allow, or Deny with a reason.
type Decision struct {
	denied bool
	reason DenyReason
}

// Allow permits the request.
func Allow() Decision { return Decision{} }

// Deny refuses the request for reason.
func Deny(reason DenyReason) Decision { return Decision{denied: true, reason: reason} }

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return !d.denied }

// Reason is empty for allowed decisions.
func (d Decision) Reason() DenyReason { return d.reason }

// Err converts a denial into the error surfaced to callers. Closing a ticket
// that is not resolved yet is a precondition failure; every other denial is an
// authorization failure.
func (d Decision) Err() error {
	if !d.denied {
		return nil
	}
	if d.reason == ReasonNotReadyToClose {
		return apperrors.NewPrecondition(string(d.reason), map[string]any{"reason": string(d.reason)})
	}
	return apperrors.NewNotAuthorized(string(d.reason))
}

// Change is a whitelisted mutation request. Nil fields are left untouched.
type Change struct {
	AssignedTo *string
	Status     *domain.TicketStatus
}

// IsEmpty reports whether the change requests nothing.
func (c Change) IsEmpty() bool {
	return c.AssignedTo == nil && c.Status == nil
}

// CanMutate decides whether actor may apply change to ticket.
func CanMutate(actor domain.Actor, ticket *domain.Ticket, change Change) Decision {
	switch actor.Role {
	case domain.RoleCustomer:
		return customerCanMutate(actor, ticket, change)
	case domain.RoleSupport:
		return supportCanMutate(actor, ticket, change)
	case domain.RoleAdmin:
		return Allow()
	}
	return Deny(ReasonNotAuthorized)
}

func customerCanMutate(actor domain.Actor, ticket *domain.Ticket, change Change) Decision {
	if ticket.ReporterID != actor.ID {
		return Deny(ReasonNotAuthorized)
	}
	if change.AssignedTo != nil {
		return Deny(ReasonNotAuthorized)
	}
	if change.Status == nil {
		return Allow()
	}
	if *change.Status != domain.TicketStatusClosed {
		return Deny(ReasonNotAuthorized)
	}
	if ticket.Status != domain.TicketStatusResolved {
		return Deny(ReasonNotReadyToClose)
	}
	return Allow()
}

func supportCanMutate(actor domain.Actor, ticket *domain.Ticket, change Change) Decision {
	if change.AssignedTo != nil {
		return Deny(ReasonNotAuthorized)
	}
	if ticket.IsAssignedTo(actor.ID) {
		return Allow()
	}
	// Claiming: the only thing support may do to a ticket nobody owns yet.
	if ticket.AssigneeID == nil && change.Status != nil && *change.Status == domain.TicketStatusInProgress {
		return Allow()
	}
	return Deny(ReasonNotAssigned)
}

// CanView decides whether actor may read ticket.
func CanView(actor domain.Actor, ticket *domain.Ticket) Decision {
	switch actor.Role {
	case domain.RoleCustomer:
		if ticket.ReporterID == actor.ID {
			return Allow()
		}
		return Deny(ReasonNotAuthorized)
	case domain.RoleSupport, domain.RoleAdmin:
		return Allow()
	}
	return Deny(ReasonNotAuthorized)
}

// ListScope describes which tickets a role's list view covers.
type ListScope struct {
	ReporterID *string
	AssigneeID *string
}

// ScopeFor returns the list filter for actor. Admins see everything.
func ScopeFor(actor domain.Actor) (ListScope, error) {
	id := actor.ID
	switch actor.Role {
	case domain.RoleCustomer:
		return ListScope{ReporterID: &id}, nil
	case domain.RoleSupport:
		return ListScope{AssigneeID: &id}, nil
	case domain.RoleAdmin:
		return ListScope{}, nil
	}
	return ListScope{}, apperrors.NewNotAuthorized(string(ReasonNotAuthorized))
}
