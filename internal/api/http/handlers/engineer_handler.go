package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// EngineerHandler exposes the assigned-work surface for engineers.
type EngineerHandler struct {
	tickets *service.TicketService
}

// NewEngineerHandler constructs handler.
func NewEngineerHandler(tickets *service.TicketService) *EngineerHandler {
	return &EngineerHandler{tickets: tickets}
}

// ListAssigned GET /api/engineer/tickets.
func (h *EngineerHandler) ListAssigned(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListAssigned(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "tickets": dto.FromTickets(tickets)})
}

// AppendLog POST /api/engineer/tickets/:ticket_id/logs.
func (h *EngineerHandler) AppendLog(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AppendLogRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.AppendLog(c.UserContext(), caller, c.Params("ticket_id"), req.TextMessage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// SetResolved PATCH /api/engineer/tickets/:ticket_id/resolved.
func (h *EngineerHandler) SetResolved(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.SetResolvedRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.SetResolved(c.UserContext(), caller, c.Params("ticket_id"), *req.Resolved)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}
