package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAccepted EventType = "ticket_accepted"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketResolved EventType = "ticket_resolved"
	EventTicketLogAdded EventType = "ticket_log_added"
	EventTicketDeleted  EventType = "ticket_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ByUser      string                `json:"by_user"`
	CompanyName string                `json:"company_name"`
	Priority    domain.TicketPriority `json:"priority"`
	Issue       string                `json:"issue,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	EngineerID string `json:"engineer_id"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Resolved bool       `json:"resolved"`
	SolvedAt *time.Time `json:"solved_at,omitempty"`
}

// TicketLogAddedPayload payload.
type TicketLogAddedPayload struct {
	UserRole domain.Role `json:"user_role"`
	Preview  string      `json:"preview"`
}
