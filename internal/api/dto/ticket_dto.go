package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. Field names follow the browser client's ticket
// document shape.
type CreateTicketRequest struct {
	Name           string `json:"name" validate:"required"`
	CompanyName    string `json:"companyName" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	PhoneNumber    string `json:"phoneNumber" validate:"required"`
	LandlineNumber string `json:"landlineNumber"`
	Department     string `json:"department"`
	Issue          string `json:"issue"`
	Classification string `json:"classification"`
	Channel        string `json:"channel"`
	Remarks        string `json:"remarks"`
	Priority       string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// UpdateTicketRequest carries owner-editable descriptive fields; absent
// fields are left untouched.
type UpdateTicketRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	CompanyName    *string `json:"companyName" validate:"omitempty,min=1"`
	Email          *string `json:"email" validate:"omitempty,email"`
	PhoneNumber    *string `json:"phoneNumber" validate:"omitempty,min=1"`
	LandlineNumber *string `json:"landlineNumber"`
	Department     *string `json:"department"`
	Issue          *string `json:"issue"`
	Classification *string `json:"classification"`
	Channel        *string `json:"channel"`
	Remarks        *string `json:"remarks"`
}

// SetResolvedRequest toggles the resolution flag.
type SetResolvedRequest struct {
	Resolved *bool `json:"resolved" validate:"required"`
}

// AppendLogRequest adds one audit trail entry.
type AppendLogRequest struct {
	TextMessage string `json:"textMessage" validate:"required,min=1"`
}

// SetPriorityRequest payload.
type SetPriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high"`
}

// SetProblemRequest payload.
type SetProblemRequest struct {
	Problem string `json:"Problem"`
}

// SetServiceTypeRequest payload.
type SetServiceTypeRequest struct {
	ServiceType string `json:"ServiceType" validate:"omitempty,oneof=Visit Online"`
}

// SetAMCRequest payload.
type SetAMCRequest struct {
	AMC string `json:"AMC" validate:"omitempty,oneof='In AMC' 'Not in AMC'"`
}

// SetPartNameRequest payload.
type SetPartNameRequest struct {
	PartName string `json:"partName"`
}

// AssignEngineerRequest payload.
type AssignEngineerRequest struct {
	EngineerID string `json:"engineerId" validate:"required"`
}

// SetTimestampRequest overrides createdAt or solvedAt directly.
type SetTimestampRequest struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// LogEntryResponse is one audit trail entry.
type LogEntryResponse struct {
	Timestamp time.Time   `json:"timestamp"`
	UserRole  domain.Role `json:"userRole"`
	Message   string      `json:"message"`
}

// TicketResponse exposes the full ticket document.
type TicketResponse struct {
	ID               string             `json:"id"`
	ByUser           string             `json:"byUser"`
	Name             string             `json:"name"`
	CompanyName      string             `json:"companyName"`
	Email            string             `json:"email"`
	PhoneNumber      string             `json:"phoneNumber"`
	LandlineNumber   string             `json:"landlineNumber"`
	Department       string             `json:"department"`
	Issue            string             `json:"issue"`
	Classification   string             `json:"classification"`
	Channel          string             `json:"channel"`
	Remarks          string             `json:"remarks"`
	Priority         string             `json:"priority"`
	Problem          string             `json:"Problem"`
	ServiceType      string             `json:"ServiceType"`
	AMC              string             `json:"AMC"`
	PartName         string             `json:"partName"`
	AssignedEngineer *string            `json:"assignedEngineer"`
	Accepted         int                `json:"accepted"`
	Resolved         bool               `json:"resolved"`
	SolvedAt         *time.Time         `json:"solvedAt"`
	Logs             []LogEntryResponse `json:"logs"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// FromTicket maps the domain aggregate to its response shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	logs := make([]LogEntryResponse, 0, len(t.Logs))
	for _, entry := range t.Logs {
		logs = append(logs, LogEntryResponse{
			Timestamp: entry.Timestamp,
			UserRole:  entry.UserRole,
			Message:   entry.Message,
		})
	}
	return TicketResponse{
		ID:               t.PublicID,
		ByUser:           t.ByUser,
		Name:             t.Name,
		CompanyName:      t.CompanyName,
		Email:            t.Email,
		PhoneNumber:      t.PhoneNumber,
		LandlineNumber:   t.LandlineNumber,
		Department:       t.Department,
		Issue:            t.Issue,
		Classification:   t.Classification,
		Channel:          t.Channel,
		Remarks:          t.Remarks,
		Priority:         string(t.Priority),
		Problem:          t.Problem,
		ServiceType:      string(t.ServiceType),
		AMC:              string(t.AMC),
		PartName:         t.PartName,
		AssignedEngineer: t.AssignedEngineer,
		Accepted:         t.Accepted,
		Resolved:         t.Resolved,
		SolvedAt:         t.SolvedAt,
		Logs:             logs,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// FromTickets maps a ticket slice.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}
