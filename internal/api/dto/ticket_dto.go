package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest payload. Only these two fields may be sent.
type UpdateTicketRequest struct {
	AssignedTo *string              `json:"assignedTo,omitempty"`
	Status     *domain.TicketStatus `json:"status,omitempty"`
}

// UpdatableTicketFields lists the keys accepted in an update body.
var UpdatableTicketFields = map[string]struct{}{
	"assignedTo": {},
	"status":     {},
}

// TicketResponse renders a ticket with its full audit history.
type TicketResponse struct {
	ID          string                 `json:"id"`
	User        string                 `json:"user"`
	AssignedTo  *string                `json:"assignedTo"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    domain.TicketCategory  `json:"category"`
	Priority    domain.TicketPriority  `json:"priority"`
	Status      domain.TicketStatus    `json:"status"`
	SLADeadline time.Time              `json:"slaDeadline"`
	SLABreached bool                   `json:"slaBreached"`
	History     []HistoryEntryResponse `json:"history"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// HistoryEntryResponse is one audit record.
type HistoryEntryResponse struct {
	Action      domain.HistoryAction `json:"action"`
	PerformedBy string               `json:"performedBy"`
	Details     string               `json:"details"`
	Timestamp   time.Time            `json:"timestamp"`
}

// TicketStatsResponse summarizes the caller's visible tickets.
type TicketStatsResponse struct {
	Total    int                         `json:"total"`
	ByStatus map[domain.TicketStatus]int `json:"byStatus"`
	Breached int                         `json:"slaBreached"`
}
