package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// TicketsHandler manages complaint endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/complaints.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authorized, no token")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, lifecycle.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket, h.service.Now())})
}

// ListTickets GET /api/complaints.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authorized, no token")
	}
	tickets, err := h.service.ListTickets(c.UserContext(), actor, parseTicketQuery(c))
	if err != nil {
		return err
	}
	now := h.service.Now()
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i], now))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/complaints/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authorized, no token")
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.service.Now())})
}

// UpdateTicket PUT /api/complaints/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authorized, no token")
	}
	change, err := parseUpdateBody(c.Body())
	if err != nil {
		return err
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), change)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket, h.service.Now())})
}

// Stats GET /api/complaints/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authorized, no token")
	}
	stats, err := h.service.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketStatsResponse{
		Total:    stats.Total,
		ByStatus: stats.ByStatus,
		Breached: stats.Breached,
	}})
}

// parseUpdateBody accepts only the updatable fields; anything else in the
// body rejects the whole request.
func parseUpdateBody(body []byte) (lifecycle.Change, error) {
	var change lifecycle.Change
	if len(strings.TrimSpace(string(body))) == 0 {
		return change, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return change, apperrors.NewValidationError("invalid payload", nil)
	}

	unknown := []string{}
	for key := range raw {
		if _, ok := dto.UpdatableTicketFields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return change, apperrors.NewValidationError("only assignedTo and status can be updated", map[string]any{"fields": unknown})
	}

	var req dto.UpdateTicketRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return change, apperrors.NewValidationError("invalid payload", nil)
	}
	if _, sent := raw["assignedTo"]; sent && req.AssignedTo == nil {
		return change, apperrors.NewValidationError("assignedTo must be a user id", nil)
	}
	if _, sent := raw["status"]; sent && req.Status == nil {
		return change, apperrors.NewValidationError("status must be a string", nil)
	}
	change.AssignedTo = req.AssignedTo
	change.Status = req.Status
	return change, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
			}
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket, now time.Time) dto.TicketResponse {
	history := make([]dto.HistoryEntryResponse, 0, len(ticket.History))
	for _, entry := range ticket.History {
		history = append(history, dto.HistoryEntryResponse{
			Action:      entry.Action,
			PerformedBy: entry.PerformedBy,
			Details:     entry.Details,
			Timestamp:   entry.Timestamp,
		})
	}
	return dto.TicketResponse{
		ID:          ticket.ID,
		User:        ticket.ReporterID,
		AssignedTo:  ticket.AssigneeID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		SLADeadline: ticket.SLADeadline,
		SLABreached: ticket.SLABreached(now),
		History:     history,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}
