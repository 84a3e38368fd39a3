package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketPatch captures a partial update. Nil fields are left untouched; the
// update is applied as a single statement so document-level atomicity is the
// concurrency guarantee.
type TicketPatch struct {
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

	Priority         *domain.TicketPriority
	Problem          *string
	ServiceType      *domain.ServiceType
	AMC              *domain.AMCStatus
	PartName         *string
	AssignedEngineer *string
	Accepted         *int

	Resolved      *bool
	SolvedAt      *time.Time
	ClearSolvedAt bool

	CreatedAt *time.Time
}

// IsZero reports whether the patch carries no changes.
func (p TicketPatch) IsZero() bool {
	return p == TicketPatch{}
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Insert(ctx context.Context, ticket *domain.Ticket) error
	GetByPublicID(ctx context.Context, publicID string) (*domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	ListByEngineer(ctx context.Context, engineerID string) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Ticket, error)
	UpdatePartial(ctx context.Context, publicID string, patch TicketPatch) (*domain.Ticket, error)
	AppendLog(ctx context.Context, publicID string, entry domain.LogEntry) (*domain.Ticket, error)
	DeleteByPublicID(ctx context.Context, publicID string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, public_id, by_user, name, company_name, email, phone_number,
       landline_number, department, issue, classification, channel, remarks,
       priority, problem, service_type, amc, part_name, assigned_engineer,
       accepted, resolved, solved_at, logs, created_at, updated_at`

func (r *ticketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (public_id, by_user, name, company_name, email, phone_number,
            landline_number, department, issue, classification, channel, remarks,
            priority, problem, service_type, amc, part_name, assigned_engineer,
            accepted, resolved, solved_at, logs)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
        RETURNING id, created_at, updated_at`
	logs := ticket.Logs
	if logs == nil {
		logs = []domain.LogEntry{}
	}
	return r.pool.QueryRow(ctx, query,
		ticket.PublicID,
		ticket.ByUser,
		ticket.Name,
		ticket.CompanyName,
		ticket.Email,
		ticket.PhoneNumber,
		ticket.LandlineNumber,
		ticket.Department,
		ticket.Issue,
		ticket.Classification,
		ticket.Channel,
		ticket.Remarks,
		ticket.Priority,
		ticket.Problem,
		ticket.ServiceType,
		ticket.AMC,
		ticket.PartName,
		ticket.AssignedEngineer,
		ticket.Accepted,
		ticket.Resolved,
		ticket.SolvedAt,
		logs,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE public_id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, publicID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, args...), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE by_user=$1 ORDER BY created_at DESC`, ticketColumns)
	return r.list(ctx, query, ownerID)
}

func (r *ticketRepository) ListByEngineer(ctx context.Context, engineerID string) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE assigned_engineer=$1 ORDER BY created_at DESC`, ticketColumns)
	return r.list(ctx, query, engineerID)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets ORDER BY created_at DESC`, ticketColumns)
	return r.list(ctx, query)
}

func (r *ticketRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if !start.IsZero() {
		args = append(args, start)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !end.IsZero() {
		args = append(args, end)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at ASC`,
		ticketColumns, strings.Join(clauses, " AND "))
	return r.list(ctx, query, args...)
}

func (r *ticketRepository) UpdatePartial(ctx context.Context, publicID string, patch TicketPatch) (*domain.Ticket, error) {
	if patch.IsZero() {
		return r.GetByPublicID(ctx, publicID)
	}

	sets := []string{"updated_at=NOW()"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.CompanyName != nil {
		add("company_name", *patch.CompanyName)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PhoneNumber != nil {
		add("phone_number", *patch.PhoneNumber)
	}
	if patch.LandlineNumber != nil {
		add("landline_number", *patch.LandlineNumber)
	}
	if patch.Department != nil {
		add("department", *patch.Department)
	}
	if patch.Issue != nil {
		add("issue", *patch.Issue)
	}
	if patch.Classification != nil {
		add("classification", *patch.Classification)
	}
	if patch.Channel != nil {
		add("channel", *patch.Channel)
	}
	if patch.Remarks != nil {
		add("remarks", *patch.Remarks)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.Problem != nil {
		add("problem", *patch.Problem)
	}
	if patch.ServiceType != nil {
		add("service_type", *patch.ServiceType)
	}
	if patch.AMC != nil {
		add("amc", *patch.AMC)
	}
	if patch.PartName != nil {
		add("part_name", *patch.PartName)
	}
	if patch.AssignedEngineer != nil {
		add("assigned_engineer", *patch.AssignedEngineer)
	}
	if patch.Accepted != nil {
		add("accepted", *patch.Accepted)
	}
	if patch.Resolved != nil {
		add("resolved", *patch.Resolved)
	}
	if patch.SolvedAt != nil {
		add("solved_at", *patch.SolvedAt)
	} else if patch.ClearSolvedAt {
		sets = append(sets, "solved_at=NULL")
	}
	if patch.CreatedAt != nil {
		add("created_at", *patch.CreatedAt)
	}

	args = append(args, publicID)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE public_id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), ticketColumns)
	return r.fetchSingle(ctx, query, args...)
}

func (r *ticketRepository) AppendLog(ctx context.Context, publicID string, entry domain.LogEntry) (*domain.Ticket, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`UPDATE tickets SET logs = logs || $2::jsonb, updated_at=NOW()
        WHERE public_id=$1 RETURNING %s`, ticketColumns)
	return r.fetchSingle(ctx, query, publicID, payload)
}

func (r *ticketRepository) DeleteByPublicID(ctx context.Context, publicID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE public_id=$1`, publicID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.PublicID,
		&ticket.ByUser,
		&ticket.Name,
		&ticket.CompanyName,
		&ticket.Email,
		&ticket.PhoneNumber,
		&ticket.LandlineNumber,
		&ticket.Department,
		&ticket.Issue,
		&ticket.Classification,
		&ticket.Channel,
		&ticket.Remarks,
		&ticket.Priority,
		&ticket.Problem,
		&ticket.ServiceType,
		&ticket.AMC,
		&ticket.PartName,
		&ticket.AssignedEngineer,
		&ticket.Accepted,
		&ticket.Resolved,
		&ticket.SolvedAt,
		&ticket.Logs,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
