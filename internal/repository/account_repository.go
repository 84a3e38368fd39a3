package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AccountRepository encapsulates identity persistence.
type AccountRepository interface {
	Insert(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateRoleByEmail(ctx context.Context, email string, role domain.Role) (*domain.Account, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository instantiates repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, name, email, password_hash, role, created_at, updated_at`

func (r *accountRepository) Insert(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (name, email, password_hash, role)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *accountRepository) UpdateRoleByEmail(ctx context.Context, email string, role domain.Role) (*domain.Account, error) {
	const query = `UPDATE accounts SET role=$1, updated_at=NOW() WHERE email=$2
        RETURNING ` + accountColumns
	return r.fetchSingle(ctx, query, role, email)
}

func (r *accountRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE role=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := scanAccount(rows, &account); err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var account domain.Account
	if err := scanAccount(r.pool.QueryRow(ctx, query, args...), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func scanAccount(row rowScanner, account *domain.Account) error {
	return row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
}
