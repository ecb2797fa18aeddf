package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// EventTypeFor maps a history action to the event announcing it.
func EventTypeFor(action domain.HistoryAction) EventType {
	switch action {
	case domain.ActionAssigned:
		return EventTicketAssigned
	case domain.ActionStatusChanged:
		return EventTicketStatusChanged
	default:
		return EventTicketCreated
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted after a ticket change is persisted.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketChangedPayload carries the ticket state right after the recorded change
// together with the history entry that recorded it.
type TicketChangedPayload struct {
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	ReporterID string                `json:"reporter_id"`
	AssigneeID *string               `json:"assignee_id,omitempty"`
	Entry      domain.HistoryEntry   `json:"entry"`
}
