package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AccountsHandler manages registration and login.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

// Register POST /api/auth/register.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, token, exp, err := h.accounts.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status": http.StatusOK,
		"auth": dto.AuthResponse{
			Token:     token,
			ExpiresAt: exp,
			Account:   dto.FromAccount(account),
		},
	})
}

// Login POST /api/auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	account, token, exp, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": http.StatusOK,
		"auth": dto.AuthResponse{
			Token:     token,
			ExpiresAt: exp,
			Account:   dto.FromAccount(account),
		},
	})
}
