package domain

import "time"

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ServiceType distinguishes on-site visits from remote handling.
type ServiceType string

const (
	ServiceTypeVisit  ServiceType = "Visit"
	ServiceTypeOnline ServiceType = "Online"
	ServiceTypeUnset  ServiceType = ""
)

// AMCStatus is the annual maintenance contract flag.
type AMCStatus string

const (
	AMCIn    AMCStatus = "In AMC"
	AMCNot   AMCStatus = "Not in AMC"
	AMCUnset AMCStatus = ""
)

// Accepted flag values. The flag only ever moves 0 -> 1.
const (
	TicketNotAccepted = 0
	TicketAccepted    = 1
)

// LogEntry is an immutable note on a ticket's audit trail. Entries are only
// ever appended; sequence order equals append order. The timestamp is not
// guaranteed monotonic with append order because createdAt/solvedAt overrides
// exist independently.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	UserRole  Role      `json:"userRole"`
	Message   string    `json:"message"`
}

// Ticket is the aggregate for support requests. ID is the store's internal
// primary key; PublicID is the externally visible, immutable ticket identifier.
type Ticket struct {
	ID       string
	PublicID string
	ByUser   string

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

	Priority         TicketPriority
	Problem          string
	ServiceType      ServiceType
	AMC              AMCStatus
	PartName         string
	AssignedEngineer *string
	Accepted         int

	Resolved bool
	SolvedAt *time.Time

	Logs []LogEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}
