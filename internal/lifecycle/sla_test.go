package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestSLADeadline(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	cases := map[domain.TicketPriority]time.Duration{
		domain.TicketPriorityCritical: time.Hour,
		domain.TicketPriorityHigh:     4 * time.Hour,
		domain.TicketPriorityMedium:   24 * time.Hour,
		domain.TicketPriorityLow:      72 * time.Hour,
		"":                            72 * time.Hour,
		"Unknown":                     72 * time.Hour,
	}
	for priority, offset := range cases {
		deadline := SLADeadline(priority, createdAt)
		assert.Equal(t, offset, deadline.Sub(createdAt), "priority %q", priority)
		assert.False(t, deadline.Before(createdAt))
	}
}
