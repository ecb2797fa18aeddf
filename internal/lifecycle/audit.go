package lifecycle

import "github.com/spec-kit/complaint-service/internal/domain"

// Append adds entries to the end of the ticket's history. The slice is copied
// first so a history previously handed out is never written through.
func Append(ticket *domain.Ticket, entries ...domain.HistoryEntry) {
	if len(entries) == 0 {
		return
	}
	history := make([]domain.HistoryEntry, 0, len(ticket.History)+len(entries))
	history = append(history, ticket.History...)
	ticket.History = append(history, entries...)
}

