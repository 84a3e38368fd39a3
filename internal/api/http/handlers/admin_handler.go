package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// AdminHandler manages the admin triage surface: listing, per-field workflow
// routes, assignment, acceptance, export and deletion.
type AdminHandler struct {
	tickets  *service.TicketService
	accounts *service.AccountService
	export   *service.ExportService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tickets *service.TicketService, accounts *service.AccountService, export *service.ExportService) *AdminHandler {
	return &AdminHandler{tickets: tickets, accounts: accounts, export: export}
}

// ListTickets GET /api/admin/tickets.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListAll(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "tickets": dto.FromTickets(tickets)})
}

// ExportTickets GET /api/admin/tickets/export.
func (h *AdminHandler) ExportTickets(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	query := service.ExportQuery{
		Duration: c.Query("duration"),
		Format:   c.Query("format"),
	}
	if start := c.Query("start"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return apperrors.NewValidationError("invalid start date", map[string]any{"start": start})
		}
		query.Start = &t
	}
	if end := c.Query("end"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return apperrors.NewValidationError("invalid end date", map[string]any{"end": end})
		}
		query.End = &t
	}

	result, err := h.export.Export(c.UserContext(), caller, query)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+result.Filename)
	return c.Status(http.StatusOK).Send(result.Data)
}

// ListEngineers GET /api/admin/engineers.
func (h *AdminHandler) ListEngineers(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	engineers, err := h.accounts.ListEngineers(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "engineers": dto.FromAccounts(engineers)})
}

// PromoteEngineer PUT /api/admin/engineers.
func (h *AdminHandler) PromoteEngineer(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.PromoteEngineerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, err := h.accounts.PromoteEngineer(c.UserContext(), caller, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "account": dto.FromAccount(account)})
}

// AssignEngineer PUT /api/admin/tickets/:ticket_id/engineer.
func (h *AdminHandler) AssignEngineer(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.AssignEngineerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.AssignEngineer(c.UserContext(), caller, c.Params("ticket_id"), req.EngineerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// AcceptTicket PUT /api/admin/tickets/:ticket_id/accept.
func (h *AdminHandler) AcceptTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.AcceptTicket(c.UserContext(), caller, c.Params("ticket_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// SetPriority PUT /api/admin/tickets/:ticket_id/priority.
func (h *AdminHandler) SetPriority(c *fiber.Ctx) error {
	var req dto.SetPriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	priority := domain.TicketPriority(req.Priority)
	return h.updateWorkflow(c, service.TicketWorkflowPatch{Priority: &priority})
}

// SetProblem PUT /api/admin/tickets/:ticket_id/problem.
func (h *AdminHandler) SetProblem(c *fiber.Ctx) error {
	var req dto.SetProblemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.updateWorkflow(c, service.TicketWorkflowPatch{Problem: &req.Problem})
}

// SetServiceType PUT /api/admin/tickets/:ticket_id/service_type.
func (h *AdminHandler) SetServiceType(c *fiber.Ctx) error {
	var req dto.SetServiceTypeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	serviceType := domain.ServiceType(req.ServiceType)
	return h.updateWorkflow(c, service.TicketWorkflowPatch{ServiceType: &serviceType})
}

// SetAMC PUT /api/admin/tickets/:ticket_id/amc.
func (h *AdminHandler) SetAMC(c *fiber.Ctx) error {
	var req dto.SetAMCRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	amc := domain.AMCStatus(req.AMC)
	return h.updateWorkflow(c, service.TicketWorkflowPatch{AMC: &amc})
}

// SetPartName PUT /api/admin/tickets/:ticket_id/part_name.
func (h *AdminHandler) SetPartName(c *fiber.Ctx) error {
	var req dto.SetPartNameRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.updateWorkflow(c, service.TicketWorkflowPatch{PartName: &req.PartName})
}

// AppendLog PUT /api/admin/tickets/:ticket_id/logs.
func (h *AdminHandler) AppendLog(c *fiber.Ctx) error {
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

// MarkSolved PUT /api/admin/tickets/:ticket_id/solved.
func (h *AdminHandler) MarkSolved(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.SetResolved(c.UserContext(), caller, c.Params("ticket_id"), true)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// SetResolvedAt PATCH /api/admin/tickets/:ticket_id/resolved_at.
func (h *AdminHandler) SetResolvedAt(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.SetTimestampRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.SetResolvedAt(c.UserContext(), caller, c.Params("ticket_id"), req.Timestamp)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// SetCreatedAt PATCH /api/admin/tickets/:ticket_id/created_at.
func (h *AdminHandler) SetCreatedAt(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.SetTimestampRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.SetCreatedAt(c.UserContext(), caller, c.Params("ticket_id"), req.Timestamp)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}

// DeleteTicket DELETE /api/admin/tickets/:ticket_id.
func (h *AdminHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), caller, c.Params("ticket_id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK})
}

func (h *AdminHandler) updateWorkflow(c *fiber.Ctx, patch service.TicketWorkflowPatch) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateFields(c.UserContext(), caller, c.Params("ticket_id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": http.StatusOK, "ticket": dto.FromTicket(ticket)})
}
