package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnumsValid(t *testing.T) {
	assert.True(t, TicketStatusInProgress.Valid())
	assert.False(t, TicketStatus("InProgress").Valid())
	assert.True(t, TicketPriorityCritical.Valid())
	assert.False(t, TicketPriority("Urgent").Valid())
	assert.True(t, CategoryHR.Valid())
	assert.False(t, TicketCategory("Facilities").Valid())

	role, ok := ParseRole("support")
	assert.True(t, ok)
	assert.True(t, role.IsStaff())
	_, ok = ParseRole("root")
	assert.False(t, ok)
	assert.False(t, RoleCustomer.IsStaff())
}

func TestSLABreached(t *testing.T) {
	deadline := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusOpen, SLADeadline: deadline}

	assert.False(t, ticket.SLABreached(deadline))
	assert.True(t, ticket.SLABreached(deadline.Add(time.Second)))

	ticket.Status = TicketStatusResolved
	assert.False(t, ticket.SLABreached(deadline.Add(time.Hour)))
}

func TestCloneIsDeep(t *testing.T) {
	assignee := "u1"
	original := &Ticket{
		AssigneeID: &assignee,
		History:    []HistoryEntry{{Action: ActionCreated, PerformedBy: "u0"}},
	}
	cp := original.Clone()
	*cp.AssigneeID = "u2"
	cp.History[0].Details = "changed"

	assert.Equal(t, "u1", *original.AssigneeID)
	assert.Empty(t, original.History[0].Details)
	assert.True(t, original.IsAssignedTo("u1"))
	assert.Nil(t, (*Ticket)(nil).Clone())
}

func TestPublicUserOmitsCredentials(t *testing.T) {
	user := User{ID: "u1", Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", Role: RoleAdmin}
	assert.Equal(t, PublicUser{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: RoleAdmin}, user.Public())
}
