package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PromoteEngineerRequest promotes a user to engineer by email.
type PromoteEngineerRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AccountResponse exposes the public identity record.
type AccountResponse struct {
	UserID    string      `json:"userId"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AuthResponse carries the issued credential.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   AccountResponse `json:"account"`
}

// FromAccount maps an account to its response shape.
func FromAccount(a *domain.Account) AccountResponse {
	return AccountResponse{
		UserID:    a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// FromAccounts maps an account slice.
func FromAccounts(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, FromAccount(&accounts[i]))
	}
	return out
}
