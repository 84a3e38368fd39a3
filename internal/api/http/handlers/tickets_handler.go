package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// TicketsHandler manages end-user ticket endpoints. Routes are owner-scoped:
// the :user_id segment must name the caller.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

func callerFromContext(c *fiber.Ctx) (service.Caller, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Caller{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Caller{ID: principal.Account.ID, Role: principal.Role}, nil
}

// ListTickets GET /api/users/:user_id/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListByOwner(c.UserContext(), caller, c.Params("user_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "tickets": dto.FromTickets(tickets)})
}

// CreateTicket POST /api/users/:user_id/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	input := service.TicketCreateInput{
		Name:           req.Name,
		CompanyName:    req.CompanyName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		LandlineNumber: req.LandlineNumber,
		Department:     req.Department,
		Issue:          req.Issue,
		Classification: req.Classification,
		Channel:        req.Channel,
		Remarks:        req.Remarks,
		Priority:       domain.TicketPriority(req.Priority),
	}
	ticket, err := h.service.Create(c.UserContext(), caller, c.Params("user_id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// GetTicket GET /api/users/:user_id/tickets/:ticket_id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), caller, c.Params("user_id"), c.Params("ticket_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// UpdateTicket PATCH /api/users/:user_id/tickets/:ticket_id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	patch := service.TicketDetailsPatch{
		Name:           req.Name,
		CompanyName:    req.CompanyName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		LandlineNumber: req.LandlineNumber,
		Department:     req.Department,
		Issue:          req.Issue,
		Classification: req.Classification,
		Channel:        req.Channel,
		Remarks:        req.Remarks,
	}
	ticket, err := h.service.UpdateDetails(c.UserContext(), caller, c.Params("user_id"), c.Params("ticket_id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// SetResolved PATCH /api/users/:user_id/tickets/:ticket_id/resolved.
func (h *TicketsHandler) SetResolved(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.SetResolvedRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.SetResolved(c.UserContext(), caller, c.Params("ticket_id"), *req.Resolved)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// AppendLog POST /api/users/:user_id/tickets/:ticket_id/logs.
func (h *TicketsHandler) AppendLog(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AppendLogRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.AppendLog(c.UserContext(), caller, c.Params("ticket_id"), req.TextMessage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}
