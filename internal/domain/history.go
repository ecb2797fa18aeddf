package domain

import "time"

// HistoryAction tags what a history entry records.
type HistoryAction string

const (
	ActionCreated       HistoryAction = "Created"
	ActionAssigned      HistoryAction = "Assigned"
	ActionStatusChanged HistoryAction = "StatusChanged"
)

// HistoryEntry is an immutable audit trail entry embedded in a ticket.
type HistoryEntry struct {
	Action      HistoryAction `json:"action"`
	PerformedBy string        `json:"performedBy"`
	Details     string        `json:"details"`
	Timestamp   time.Time     `json:"timestamp"`
}
