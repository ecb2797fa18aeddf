package lifecycle

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Clock returns the current instant. Tests inject a fixed reading.
type Clock func() time.Time

// SystemClock reads the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

var slaOffsets = map[domain.TicketPriority]time.Duration{
	domain.TicketPriorityCritical: time.Hour,
	domain.TicketPriorityHigh:     4 * time.Hour,
	domain.TicketPriorityMedium:   24 * time.Hour,
	domain.TicketPriorityLow:      72 * time.Hour,
}

// SLAOffset returns the resolution window for a priority. Unknown or empty
// priorities get the Low window.
func SLAOffset(priority domain.TicketPriority) time.Duration {
	if offset, ok := slaOffsets[priority]; ok {
		return offset
	}
	return slaOffsets[domain.TicketPriorityLow]
}

// SLADeadline computes the advisory deadline for a ticket created at createdAt.
func SLADeadline(priority domain.TicketPriority, createdAt time.Time) time.Time {
	return createdAt.Add(SLAOffset(priority))
}
