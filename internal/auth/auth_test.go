package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    domain.Role
		wantErr bool
	}{
		{"admin token", RoleTokenAdmin, domain.RoleAdmin, false},
		{"engineer token", RoleTokenEngineer, domain.RoleEngineer, false},
		{"user token", RoleTokenUser, domain.RoleUser, false},
		{"unknown token", "0000-t9-nope-000-zzzz", "", true},
		{"empty token", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := ResolveRole(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestRoleTokenRoundTrip(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleUser, domain.RoleEngineer, domain.RoleAdmin} {
		resolved, err := ResolveRole(RoleToken(role))
		require.NoError(t, err)
		assert.Equal(t, role, resolved)
	}
}

func TestTokenManagerRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, exp, err := tm.GenerateToken("acct-1", RoleTokenEngineer)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.SubjectID)
	assert.Equal(t, RoleTokenEngineer, claims.RoleToken)
}

func TestTokenManagerRejectsForeignSignature(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("acct-1", RoleTokenUser)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 60).ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.Error(t, ComparePassword(hash, "wrong-pass"))
}
