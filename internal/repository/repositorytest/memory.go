// Package repositorytest provides in-memory repository implementations for
// service tests. They mirror the persistence contracts, including the
// pgx.ErrNoRows miss behavior the services map on.
package repositorytest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// MemoryTicketRepository implements repository.TicketRepository over a map.
type MemoryTicketRepository struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

// NewMemoryTicketRepository builds an empty repository.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

func (r *MemoryTicketRepository) Insert(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	ticket.ID = "tid-" + strconv.Itoa(r.seq)
	now := time.Now()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = now
	if ticket.Logs == nil {
		ticket.Logs = []domain.LogEntry{}
	}

	stored := cloneTicket(ticket)
	r.tickets[ticket.PublicID] = &stored
	return nil
}

func (r *MemoryTicketRepository) GetByPublicID(_ context.Context, publicID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[publicID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneTicket(stored)
	return &out, nil
}

func (r *MemoryTicketRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	return r.listWhere(func(t *domain.Ticket) bool { return t.ByUser == ownerID }, false), nil
}

func (r *MemoryTicketRepository) ListByEngineer(_ context.Context, engineerID string) ([]domain.Ticket, error) {
	return r.listWhere(func(t *domain.Ticket) bool {
		return t.AssignedEngineer != nil && *t.AssignedEngineer == engineerID
	}, false), nil
}

func (r *MemoryTicketRepository) ListAll(_ context.Context) ([]domain.Ticket, error) {
	return r.listWhere(func(*domain.Ticket) bool { return true }, false), nil
}

func (r *MemoryTicketRepository) ListByDateRange(_ context.Context, start, end time.Time) ([]domain.Ticket, error) {
	return r.listWhere(func(t *domain.Ticket) bool {
		if !start.IsZero() && t.CreatedAt.Before(start) {
			return false
		}
		if !end.IsZero() && t.CreatedAt.After(end) {
			return false
		}
		return true
	}, true), nil
}

func (r *MemoryTicketRepository) UpdatePartial(_ context.Context, publicID string, patch repository.TicketPatch) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[publicID]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&stored.Name, patch.Name)
	applyString(&stored.CompanyName, patch.CompanyName)
	applyString(&stored.Email, patch.Email)
	applyString(&stored.PhoneNumber, patch.PhoneNumber)
	applyString(&stored.LandlineNumber, patch.LandlineNumber)
	applyString(&stored.Department, patch.Department)
	applyString(&stored.Issue, patch.Issue)
	applyString(&stored.Classification, patch.Classification)
	applyString(&stored.Channel, patch.Channel)
	applyString(&stored.Remarks, patch.Remarks)
	applyString(&stored.Problem, patch.Problem)
	applyString(&stored.PartName, patch.PartName)

	if patch.Priority != nil {
		stored.Priority = *patch.Priority
	}
	if patch.ServiceType != nil {
		stored.ServiceType = *patch.ServiceType
	}
	if patch.AMC != nil {
		stored.AMC = *patch.AMC
	}
	if patch.AssignedEngineer != nil {
		engineer := *patch.AssignedEngineer
		stored.AssignedEngineer = &engineer
	}
	if patch.Accepted != nil {
		stored.Accepted = *patch.Accepted
	}
	if patch.Resolved != nil {
		stored.Resolved = *patch.Resolved
	}
	if patch.SolvedAt != nil {
		at := *patch.SolvedAt
		stored.SolvedAt = &at
	} else if patch.ClearSolvedAt {
		stored.SolvedAt = nil
	}
	if patch.CreatedAt != nil {
		stored.CreatedAt = *patch.CreatedAt
	}
	stored.UpdatedAt = time.Now()

	out := cloneTicket(stored)
	return &out, nil
}

func (r *MemoryTicketRepository) AppendLog(_ context.Context, publicID string, entry domain.LogEntry) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[publicID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stored.Logs = append(stored.Logs, entry)
	stored.UpdatedAt = time.Now()
	out := cloneTicket(stored)
	return &out, nil
}

func (r *MemoryTicketRepository) DeleteByPublicID(_ context.Context, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[publicID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, publicID)
	return nil
}

func (r *MemoryTicketRepository) listWhere(keep func(*domain.Ticket) bool, ascending bool) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Ticket
	for _, stored := range r.tickets {
		if keep(stored) {
			result = append(result, cloneTicket(stored))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if ascending {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func cloneTicket(t *domain.Ticket) domain.Ticket {
	out := *t
	if t.AssignedEngineer != nil {
		engineer := *t.AssignedEngineer
		out.AssignedEngineer = &engineer
	}
	if t.SolvedAt != nil {
		at := *t.SolvedAt
		out.SolvedAt = &at
	}
	out.Logs = append([]domain.LogEntry(nil), t.Logs...)
	if out.Logs == nil {
		out.Logs = []domain.LogEntry{}
	}
	return out
}

// MemoryAccountRepository implements repository.AccountRepository over a map.
type MemoryAccountRepository struct {
	mu       sync.Mutex
	seq      int
	accounts map[string]*domain.Account
}

// NewMemoryAccountRepository builds an empty repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]*domain.Account)}
}

// Seed inserts an account with a fixed ID, bypassing ID assignment.
func (r *MemoryAccountRepository) Seed(account domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.ID] = &account
}

func (r *MemoryAccountRepository) Insert(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	account.ID = "aid-" + strconv.Itoa(r.seq)
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.accounts {
		if stored.Email == email {
			out := *stored
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryAccountRepository) UpdateRoleByEmail(_ context.Context, email string, role domain.Role) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.accounts {
		if stored.Email == email {
			stored.Role = role
			stored.UpdatedAt = time.Now()
			out := *stored
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryAccountRepository) ListByRole(_ context.Context, role domain.Role) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Account
	for _, stored := range r.accounts {
		if stored.Role == role {
			result = append(result, *stored)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// MemoryCache implements repository.CacheRepository. TTLs are recorded but
// never enforced; tests drive invalidation explicitly.
type MemoryCache struct {
	mu      sync.Mutex
	values  map[string]string
	SetTTLs map[string]time.Duration
}

// NewMemoryCache builds an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values:  make(map[string]string),
		SetTTLs: make(map[string]time.Duration),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if !ok {
		return "", repository.ErrCacheMiss
	}
	return value, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.SetTTLs[key] = expiration
	return nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
		delete(c.SetTTLs, key)
	}
	return nil
}

// Contains reports whether a key is cached.
func (c *MemoryCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}
