package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketCategory is the fixed set of complaint categories.
type TicketCategory string

const (
	CategoryHardware TicketCategory = "Hardware"
	CategorySoftware TicketCategory = "Software"
	CategoryNetwork  TicketCategory = "Network"
	CategoryHR       TicketCategory = "HR"
	CategoryOther    TicketCategory = "Other"
)

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryHardware, CategorySoftware, CategoryNetwork, CategoryHR, CategoryOther:
		return true
	}
	return false
}

// Ticket is the aggregate for customer complaints. History is embedded so the
// audit trail is persisted in the same record as the fields it documents.
type Ticket struct {
	ID          string
	ReporterID  string
	AssigneeID  *string
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Status      TicketStatus
	SLADeadline time.Time
	History     []HistoryEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAssignedTo reports whether the ticket's assignee is userID.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// SLABreached reports whether the advisory deadline has passed while the
// ticket is still being worked.
func (t *Ticket) SLABreached(now time.Time) bool {
	if t.Status == TicketStatusResolved || t.Status == TicketStatusClosed {
		return false
	}
	return now.After(t.SLADeadline)
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	if t.AssigneeID != nil {
		assignee := *t.AssigneeID
		cp.AssigneeID = &assignee
	}
	cp.History = append([]HistoryEntry(nil), t.History...)
	return &cp
}
