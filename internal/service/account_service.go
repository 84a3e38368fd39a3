package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

const engineerRosterCacheKey = "accounts:engineer_roster"

// AccountService coordinates registration, login and role promotion.
type AccountService struct {
	accounts   repository.AccountRepository
	cache      repository.CacheRepository
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	rosterTTL  time.Duration
}

// AccountDependencies bundles requirements for the account service.
type AccountDependencies struct {
	AccountRepo repository.AccountRepository
	Cache       repository.CacheRepository
	Logger      *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	return &AccountService{
		accounts:   deps.AccountRepo,
		cache:      deps.Cache,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		rosterTTL:  cfg.Cache.RosterTTL(),
	}
}

// TokenManager exposes the JWT manager for middleware wiring.
func (s *AccountService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new user account and issues a token.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*domain.Account, string, time.Time, error) {
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewValidationError("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.accounts.Insert(ctx, account); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.ID, auth.RoleToken(account.Role))
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return account, token, exp, nil
}

// Login verifies credentials and issues a token carrying the role token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.Account, string, time.Time, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.ID, auth.RoleToken(account.Role))
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return account, token, exp, nil
}

// PromoteEngineer promotes a user to engineer, keyed on email. Admin only.
// There is no demotion path.
func (s *AccountService) PromoteEngineer(ctx context.Context, caller Caller, email string) (*domain.Account, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	account, err := s.accounts.UpdateRoleByEmail(ctx, email, domain.RoleEngineer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	s.invalidateRoster(ctx)
	return account, nil
}

// ListEngineers returns the engineer roster. Admin only. The roster is served
// from cache when fresh and invalidated on promotion.
func (s *AccountService) ListEngineers(ctx context.Context, caller Caller) ([]domain.Account, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, engineerRosterCacheKey); err == nil {
			var roster []domain.Account
			if err := json.Unmarshal([]byte(cached), &roster); err == nil {
				return roster, nil
			}
		}
	}

	roster, err := s.accounts.ListByRole(ctx, domain.RoleEngineer)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(roster); err == nil {
			if err := s.cache.Set(ctx, engineerRosterCacheKey, string(payload), s.rosterTTL); err != nil && s.logger != nil {
				s.logger.Warn("engineer roster cache write failed", zap.Error(err))
			}
		}
	}
	return roster, nil
}

func (s *AccountService) invalidateRoster(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, engineerRosterCacheKey); err != nil && s.logger != nil {
		s.logger.Warn("engineer roster cache invalidation failed", zap.Error(err))
	}
}
