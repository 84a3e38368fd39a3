package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewValidationError("bad input", map[string]any{"field": "required"})
	mapped := ToDomainError(original)
	assert.Equal(t, "VALIDATION_FAILED", mapped.Code)
	assert.Equal(t, http.StatusBadRequest, mapped.HTTPStatus)
	assert.Equal(t, "required", mapped.Details["field"])
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", mapped.Code)
	assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("connection refused")
	mapped := ToDomainError(cause)
	assert.Equal(t, "STORE_ERROR", mapped.Code)
	assert.ErrorIs(t, mapped, cause)
}

func TestToDomainErrorNil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestIsCode(t *testing.T) {
	err := NewUnauthorized("nope")
	assert.True(t, IsCode(err, "UNAUTHORIZED"))
	assert.False(t, IsCode(err, "NOT_FOUND"))
	assert.False(t, IsCode(errors.New("plain"), "UNAUTHORIZED"))
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFound("ticket", nil)
	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ticket not found", domainErr.Message)
}
