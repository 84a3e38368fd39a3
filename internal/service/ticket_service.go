package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// Caller is the authenticated identity and resolved role threaded through
// every operation. Authorization is checked before existence in all of them,
// so denial never leaks whether a ticket exists.
type Caller struct {
	ID   string
	Role domain.Role
}

// TicketService is the sole writer of ticket state.
type TicketService struct {
	tickets    repository.TicketRepository
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		accounts:   deps.AccountRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	Name           string
	CompanyName    string
	Email          string
	PhoneNumber    string
	LandlineNumber string
	Department     string
	Issue          string
	Classification string
	Channel        string
	Remarks        string
	Priority       domain.TicketPriority
}

// TicketDetailsPatch carries owner-editable descriptive fields.
type TicketDetailsPatch struct {
	Name           *string
	CompanyName    *string
	Email          *string
	PhoneNumber    *string
	LandlineNumber *string
	Department     *string
	Issue          *string
	Classification *string
	Channel        *string
	Remarks        *string
}

// TicketWorkflowPatch carries admin-editable workflow fields.
type TicketWorkflowPatch struct {
	Priority         *domain.TicketPriority
	Problem          *string
	ServiceType      *domain.ServiceType
	AMC              *domain.AMCStatus
	PartName         *string
	Accepted         *int
	AssignedEngineer *string
}

// Create inserts a new ticket owned by the caller.
func (s *TicketService) Create(ctx context.Context, caller Caller, owner string, input TicketCreateInput) (*domain.Ticket, error) {
	if caller.ID != owner {
		return nil, apperrors.NewUnauthorized("tickets can only be created for the caller")
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityLow
	}
	if !validPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		PublicID:       uuid.NewString(),
		ByUser:         owner,
		Name:           strings.TrimSpace(input.Name),
		CompanyName:    strings.TrimSpace(input.CompanyName),
		Email:          strings.TrimSpace(input.Email),
		PhoneNumber:    strings.TrimSpace(input.PhoneNumber),
		LandlineNumber: input.LandlineNumber,
		Department:     input.Department,
		Issue:          input.Issue,
		Classification: input.Classification,
		Channel:        input.Channel,
		Remarks:        input.Remarks,
		Priority:       priority,
		Accepted:       domain.TicketNotAccepted,
		Resolved:       false,
		Logs:           []domain.LogEntry{},
	}

	if err := s.tickets.Insert(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.PublicID,
		Actor:    events.Actor{ID: caller.ID, Role: caller.Role},
		Payload: events.TicketCreatedPayload{
			ByUser:      ticket.ByUser,
			CompanyName: ticket.CompanyName,
			Priority:    ticket.Priority,
			Issue:       ticket.Issue,
		},
	})
	return ticket, nil
}

// Get fetches a ticket for its owner.
func (s *TicketService) Get(ctx context.Context, caller Caller, owner, ticketID string) (*domain.Ticket, error) {
	if caller.ID != owner {
		return nil, apperrors.NewUnauthorized("ticket not owned by caller")
	}
	return s.fetch(ctx, ticketID)
}

// ListByOwner returns all tickets owned by the route-scoped owner.
func (s *TicketService) ListByOwner(ctx context.Context, caller Caller, owner string) ([]domain.Ticket, error) {
	if caller.ID != owner {
		return nil, apperrors.NewUnauthorized("listing not owned by caller")
	}
	tickets, err := s.tickets.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAssigned returns tickets assigned to the calling engineer.
func (s *TicketService) ListAssigned(ctx context.Context, caller Caller) ([]domain.Ticket, error) {
	if caller.Role != domain.RoleEngineer && caller.Role != domain.RoleAdmin {
		return nil, apperrors.NewUnauthorized("engineer role required")
	}
	tickets, err := s.tickets.ListByEngineer(ctx, caller.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListAll returns every ticket across all owners. Admin only.
func (s *TicketService) ListAll(ctx context.Context, caller Caller) ([]domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateDetails applies a partial update of descriptive fields. Owners may
// edit until the ticket is resolved; admins may edit at any time.
func (s *TicketService) UpdateDetails(ctx context.Context, caller Caller, owner, ticketID string, patch TicketDetailsPatch) (*domain.Ticket, error) {
	if caller.Role != domain.RoleAdmin && caller.ID != owner {
		return nil, apperrors.NewUnauthorized("ticket not owned by caller")
	}
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleAdmin {
		if ticket.ByUser != caller.ID {
			return nil, apperrors.NewUnauthorized("ticket not owned by caller")
		}
		if ticket.Resolved {
			return nil, apperrors.NewValidationError("resolved ticket is read-only", nil)
		}
	}

	updated, err := s.tickets.UpdatePartial(ctx, ticketID, repository.TicketPatch{
		Name:           patch.Name,
		CompanyName:    patch.CompanyName,
		Email:          patch.Email,
		PhoneNumber:    patch.PhoneNumber,
		LandlineNumber: patch.LandlineNumber,
		Department:     patch.Department,
		Issue:          patch.Issue,
		Classification: patch.Classification,
		Channel:        patch.Channel,
		Remarks:        patch.Remarks,
	})
	if err != nil {
		return nil, mapTicketError(err)
	}
	return updated, nil
}

// UpdateFields applies a partial update of workflow fields. Admin only.
// Unspecified fields are left untouched.
func (s *TicketService) UpdateFields(ctx context.Context, caller Caller, ticketID string, patch TicketWorkflowPatch) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if patch.Priority != nil && !validPriority(*patch.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
	}
	if patch.ServiceType != nil && !validServiceType(*patch.ServiceType) {
		return nil, apperrors.NewValidationError("invalid service type", map[string]any{"serviceType": *patch.ServiceType})
	}
	if patch.AMC != nil && !validAMC(*patch.AMC) {
		return nil, apperrors.NewValidationError("invalid AMC status", map[string]any{"amc": *patch.AMC})
	}
	if patch.Accepted != nil && *patch.Accepted != domain.TicketNotAccepted && *patch.Accepted != domain.TicketAccepted {
		return nil, apperrors.NewValidationError("accepted must be 0 or 1", nil)
	}

	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if patch.Accepted != nil && ticket.Accepted == domain.TicketAccepted && *patch.Accepted == domain.TicketNotAccepted {
		return nil, apperrors.NewValidationError("accepted cannot be reverted", nil)
	}
	if patch.AssignedEngineer != nil {
		if err := s.validateEngineer(ctx, *patch.AssignedEngineer); err != nil {
			return nil, err
		}
	}

	updated, err := s.tickets.UpdatePartial(ctx, ticketID, repository.TicketPatch{
		Priority:         patch.Priority,
		Problem:          patch.Problem,
		ServiceType:      patch.ServiceType,
		AMC:              patch.AMC,
		PartName:         patch.PartName,
		Accepted:         patch.Accepted,
		AssignedEngineer: patch.AssignedEngineer,
	})
	if err != nil {
		return nil, mapTicketError(err)
	}
	return updated, nil
}

// SetResolved toggles the resolution flag. Open to every role; resolving
// stamps solvedAt with the server clock, reopening clears it.
func (s *TicketService) SetResolved(ctx context.Context, caller Caller, ticketID string, resolved bool) (*domain.Ticket, error) {
	patch := repository.TicketPatch{Resolved: &resolved}
	if resolved {
		now := time.Now()
		patch.SolvedAt = &now
	} else {
		patch.ClearSolvedAt = true
	}
	updated, err := s.tickets.UpdatePartial(ctx, ticketID, patch)
	if err != nil {
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: updated.PublicID,
		Actor:    events.Actor{ID: caller.ID, Role: caller.Role},
		Payload: events.TicketResolvedPayload{
			Resolved: updated.Resolved,
			SolvedAt: updated.SolvedAt,
		},
	})
	return updated, nil
}

// SetResolvedAt overrides the solvedAt timestamp directly, bypassing the
// resolved-driven assignment. Admin only.
func (s *TicketService) SetResolvedAt(ctx context.Context, caller Caller, ticketID string, at time.Time) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	updated, err := s.tickets.UpdatePartial(ctx, ticketID, repository.TicketPatch{SolvedAt: &at})
	if err != nil {
		return nil, mapTicketError(err)
	}
	return updated, nil
}

// SetCreatedAt overrides the creation timestamp. Admin only.
func (s *TicketService) SetCreatedAt(ctx context.Context, caller Caller, ticketID string, at time.Time) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	updated, err := s.tickets.UpdatePartial(ctx, ticketID, repository.TicketPatch{CreatedAt: &at})
	if err != nil {
		return nil, mapTicketError(err)
	}
	return updated, nil
}

// AppendLog appends one immutable entry with a server-assigned timestamp.
func (s *TicketService) AppendLog(ctx context.Context, caller Caller, ticketID, message string) (*domain.Ticket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("log message required", nil)
	}
	entry := domain.LogEntry{
		Timestamp: time.Now(),
		UserRole:  caller.Role,
		Message:   message,
	}
	updated, err := s.tickets.AppendLog(ctx, ticketID, entry)
	if err != nil {
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketLogAdded,
		TicketID: updated.PublicID,
		Actor:    events.Actor{ID: caller.ID, Role: caller.Role},
		Payload: events.TicketLogAddedPayload{
			UserRole: caller.Role,
			Preview:  stringPreview(message, 120),
		},
	})
	return updated, nil
}

// AssignEngineer sets the assigned engineer. Admin only. The target account
// must exist and hold the engineer role.
func (s *TicketService) AssignEngineer(ctx context.Context, caller Caller, ticketID, engineerID string) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validateEngineer(ctx, engineerID); err != nil {
		return nil, err
	}
	updated, err := s.tickets.UpdatePartial(ctx, ticketID, repository.TicketPatch{AssignedEngineer: &engineerID})
	if err != nil {
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: updated.PublicID,
		Actor:    events.Actor{ID: caller.ID, Role: caller.Role},
		Payload:  events.TicketAssignedPayload{EngineerID: engineerID},
	})
	return updated, nil
}

// AcceptTicket marks the ticket acknowledged for processing. Admin only and
// idempotent: re-accepting an accepted ticket is a no-op.
func (s *TicketService) AcceptTicket(ctx context.Context, caller Caller, ticketID string) (*domain.Ticket, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	accepted := domain.TicketAccepted
	updated, err := s.tickets.UpdatePartial(ctx, ticketID, repository.TicketPatch{Accepted: &accepted})
	if err != nil {
		return nil, mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAccepted,
		TicketID: updated.PublicID,
		Actor:    events.Actor{ID: caller.ID, Role: caller.Role},
	})
	return updated, nil
}

// Delete removes the ticket permanently. Admin only, hard delete.
func (s *TicketService) Delete(ctx context.Context, caller Caller, ticketID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.tickets.DeleteByPublicID(ctx, ticketID); err != nil {
		return mapTicketError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    events.Actor{ID: caller.ID, Role: caller.Role},
	})
	return nil
}

func (s *TicketService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByPublicID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

func (s *TicketService) validateEngineer(ctx context.Context, engineerID string) error {
	account, err := s.accounts.GetByID(ctx, engineerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("engineer", map[string]any{"engineer_id": engineerID})
		}
		return apperrors.MapError(err)
	}
	if account.Role != domain.RoleEngineer {
		return apperrors.NewValidationError("assignee is not an engineer", map[string]any{"engineer_id": engineerID})
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func requireAdmin(caller Caller) error {
	if caller.Role != domain.RoleAdmin {
		return apperrors.NewUnauthorized("admin role required")
	}
	return nil
}

func mapTicketError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}

func validateCreateInput(input TicketCreateInput) error {
	missing := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		missing["name"] = "required"
	}
	if strings.TrimSpace(input.CompanyName) == "" {
		missing["companyName"] = "required"
	}
	if strings.TrimSpace(input.Email) == "" {
		missing["email"] = "required"
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		missing["phoneNumber"] = "required"
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", missing)
	}
	return nil
}

func validPriority(p domain.TicketPriority) bool {
	switch p {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh:
		return true
	}
	return false
}

func validServiceType(st domain.ServiceType) bool {
	switch st {
	case domain.ServiceTypeVisit, domain.ServiceTypeOnline, domain.ServiceTypeUnset:
		return true
	}
	return false
}

func validAMC(a domain.AMCStatus) bool {
	switch a {
	case domain.AMCIn, domain.AMCNot, domain.AMCUnset:
		return true
	}
	return false
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
