package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository/repositorytest"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

type accountFixture struct {
	service  *AccountService
	accounts *repositorytest.MemoryAccountRepository
	cache    *repositorytest.MemoryCache
}

func newAccountFixture() *accountFixture {
	accounts := repositorytest.NewMemoryAccountRepository()
	cache := repositorytest.NewMemoryCache()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
		Cache: config.CacheConfig{EngineerRosterTTLSeconds: 300},
	}
	return &accountFixture{
		service: NewAccountService(cfg, AccountDependencies{
			AccountRepo: accounts,
			Cache:       cache,
			Logger:      zap.NewNop(),
		}),
		accounts: accounts,
		cache:    cache,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, token, exp, err := f.service.Register(ctx, "Priya", "priya@acme.example", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, account.Role)
	assert.NotEmpty(t, account.ID)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := f.service.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.SubjectID)
	role, err := auth.ResolveRole(claims.RoleToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, role)

	logged, token2, _, err := f.service.Login(ctx, "priya@acme.example", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, account.ID, logged.ID)
	assert.NotEmpty(t, token2)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	_, _, _, err := f.service.Register(ctx, "Priya", "priya@acme.example", "s3cret-pass")
	require.NoError(t, err)
	_, _, _, err = f.service.Register(ctx, "Other", "priya@acme.example", "another-pass")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	_, _, _, err := f.service.Login(ctx, "nobody@acme.example", "whatever")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, _, _, err = f.service.Register(ctx, "Priya", "priya@acme.example", "s3cret-pass")
	require.NoError(t, err)
	_, _, _, err = f.service.Login(ctx, "priya@acme.example", "wrong-pass")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestPromoteEngineer(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	account, _, _, err := f.service.Register(ctx, "Dev", "dev@helpdesk.example", "s3cret-pass")
	require.NoError(t, err)

	_, err = f.service.PromoteEngineer(ctx, userCaller, account.Email)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	promoted, err := f.service.PromoteEngineer(ctx, adminCaller, account.Email)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEngineer, promoted.Role)

	_, err = f.service.PromoteEngineer(ctx, adminCaller, "ghost@helpdesk.example")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	// A promoted account logs in with the engineer role token.
	logged, token, _, err := f.service.Login(ctx, account.Email, "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEngineer, logged.Role)
	claims, err := f.service.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTokenEngineer, claims.RoleToken)
}

func TestEngineerRosterCaching(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	f.accounts.Seed(domain.Account{ID: "eng-1", Name: "Dev", Email: "dev@helpdesk.example", Role: domain.RoleEngineer})
	f.accounts.Seed(domain.Account{ID: "u-1", Name: "Sam", Email: "sam@helpdesk.example", Role: domain.RoleUser})

	_, err := f.service.ListEngineers(ctx, userCaller)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	roster, err := f.service.ListEngineers(ctx, adminCaller)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "eng-1", roster[0].ID)
	assert.True(t, f.cache.Contains("accounts:engineer_roster"))
	assert.Equal(t, 300*time.Second, f.cache.SetTTLs["accounts:engineer_roster"])

	// Cached roster is served even if the store changes underneath.
	f.accounts.Seed(domain.Account{ID: "eng-2", Name: "Ana", Email: "ana@helpdesk.example", Role: domain.RoleEngineer})
	cached, err := f.service.ListEngineers(ctx, adminCaller)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	// Promotion invalidates the cache; the next read sees the new roster.
	_, err = f.service.PromoteEngineer(ctx, adminCaller, "sam@helpdesk.example")
	require.NoError(t, err)
	assert.False(t, f.cache.Contains("accounts:engineer_roster"))

	fresh, err := f.service.ListEngineers(ctx, adminCaller)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}
