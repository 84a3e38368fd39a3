package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository/repositorytest"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

type apiFixture struct {
	app      *fiber.App
	accounts *repositorytest.MemoryAccountRepository
	tokens   *auth.TokenManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	tickets := repositorytest.NewMemoryTicketRepository()
	accounts := repositorytest.NewMemoryAccountRepository()
	cache := repositorytest.NewMemoryCache()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
		Cache: config.CacheConfig{EngineerRosterTTLSeconds: 300},
	}

	accountService := service.NewAccountService(cfg, service.AccountDependencies{
		AccountRepo: accounts,
		Cache:       cache,
		Logger:      logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  tickets,
		AccountRepo: accounts,
		Dispatcher:  dispatcher,
	})
	exportService := service.NewExportService(tickets)

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(metrics, "test"),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Engineer:       handlers.NewEngineerHandler(ticketService),
		Admin:          handlers.NewAdminHandler(ticketService, accountService, exportService),
		AuthMiddleware: auth.NewAuthMiddleware(accountService.TokenManager(), accounts),
	})

	return &apiFixture{app: app, accounts: accounts, tokens: accountService.TokenManager()}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) (*nethttp.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded map[string]any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	} else {
		decoded = map[string]any{"raw": string(raw)}
	}
	return resp, decoded
}

func (f *apiFixture) registerUser(t *testing.T, name, email string) (id, token string) {
	t.Helper()
	resp, body := f.request(t, nethttp.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "s3cret-pass",
	})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	authBody := body["auth"].(map[string]any)
	token = authBody["token"].(string)
	id = authBody["account"].(map[string]any)["userId"].(string)
	return id, token
}

func (f *apiFixture) seedAdmin(t *testing.T) (id, token string) {
	t.Helper()
	f.accounts.Seed(domain.Account{ID: "admin-1", Name: "Root", Email: "root@helpdesk.example", Role: domain.RoleAdmin})
	token, _, err := f.tokens.GenerateToken("admin-1", auth.RoleTokenAdmin)
	require.NoError(t, err)
	return "admin-1", token
}

func errorCode(body map[string]any) string {
	errBody, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errBody["code"].(string)
	return code
}

func ticketPayload() map[string]any {
	return map[string]any{
		"name":        "Priya Raman",
		"companyName": "Acme Ltd",
		"email":       "priya@acme.example",
		"phoneNumber": "9876543210",
		"issue":       "printer jams on duplex",
	}
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.request(t, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, nethttp.MethodGet, "/health/metrics", "", nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

func TestTicketFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	userID, userToken := f.registerUser(t, "Priya", "priya@acme.example")

	resp, body := f.request(t, nethttp.MethodPost, "/api/users/"+userID+"/tickets", userToken, ticketPayload())
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	ticket := body["ticket"].(map[string]any)
	ticketID := ticket["id"].(string)
	assert.Equal(t, "low", ticket["priority"])
	assert.Equal(t, float64(0), ticket["accepted"])
	assert.Equal(t, false, ticket["resolved"])

	resp, body = f.request(t, nethttp.MethodGet, "/api/users/"+userID+"/tickets", userToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, body["tickets"].([]any), 1)

	resp, body = f.request(t, nethttp.MethodGet, "/api/users/"+userID+"/tickets/"+ticketID, userToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, ticketID, body["ticket"].(map[string]any)["id"])

	resp, body = f.request(t, nethttp.MethodPost, "/api/users/"+userID+"/tickets/"+ticketID+"/logs", userToken,
		map[string]any{"textMessage": "still broken"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	logs := body["ticket"].(map[string]any)["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "user", logs[0].(map[string]any)["userRole"])
}

func TestRouteOwnershipEnforced(t *testing.T) {
	f := newAPIFixture(t)
	userID, _ := f.registerUser(t, "Priya", "priya@acme.example")
	_, otherToken := f.registerUser(t, "Sam", "sam@acme.example")

	resp, body := f.request(t, nethttp.MethodGet, "/api/users/"+userID+"/tickets", otherToken, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)
	userID, _ := f.registerUser(t, "Priya", "priya@acme.example")

	resp, body := f.request(t, nethttp.MethodGet, "/api/users/"+userID+"/tickets", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	resp, body = f.request(t, nethttp.MethodGet, "/api/users/"+userID+"/tickets", "not-a-jwt", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestUnknownRoleTokenRejected(t *testing.T) {
	f := newAPIFixture(t)
	userID, _ := f.registerUser(t, "Priya", "priya@acme.example")

	forged, _, err := f.tokens.GenerateToken(userID, "0000-t9-nope-000-zzzz")
	require.NoError(t, err)

	resp, body := f.request(t, nethttp.MethodGet, "/api/users/"+userID+"/tickets", forged, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestCreateTicketValidation(t *testing.T) {
	f := newAPIFixture(t)
	userID, userToken := f.registerUser(t, "Priya", "priya@acme.example")

	payload := ticketPayload()
	delete(payload, "companyName")
	resp, body := f.request(t, nethttp.MethodPost, "/api/users/"+userID+"/tickets", userToken, payload)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestAdminWorkflowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	userID, userToken := f.registerUser(t, "Priya", "priya@acme.example")
	_, engToken := f.registerUser(t, "Dev", "dev@helpdesk.example")
	_, adminToken := f.seedAdmin(t)

	resp, body := f.request(t, nethttp.MethodPost, "/api/users/"+userID+"/tickets", userToken, ticketPayload())
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	ticketID := body["ticket"].(map[string]any)["id"].(string)

	// The admin surface is closed to regular users.
	resp, body = f.request(t, nethttp.MethodGet, "/api/admin/tickets", userToken, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	resp, body = f.request(t, nethttp.MethodPut, "/api/admin/engineers", adminToken,
		map[string]any{"email": "dev@helpdesk.example"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	engineerID := body["account"].(map[string]any)["userId"].(string)

	// Promotion changes the role but not already issued tokens; the engineer
	// surface reads the role from a fresh login.
	resp, body = f.request(t, nethttp.MethodPost, "/api/auth/login", "",
		map[string]any{"email": "dev@helpdesk.example", "password": "s3cret-pass"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	engToken = body["auth"].(map[string]any)["token"].(string)

	resp, body = f.request(t, nethttp.MethodPut, "/api/admin/tickets/"+ticketID+"/engineer", adminToken,
		map[string]any{"engineerId": engineerID})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, engineerID, body["ticket"].(map[string]any)["assignedEngineer"])

	resp, body = f.request(t, nethttp.MethodGet, "/api/engineer/tickets", engToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, body["tickets"].([]any), 1)

	resp, body = f.request(t, nethttp.MethodPut, "/api/admin/tickets/"+ticketID+"/accept", adminToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["ticket"].(map[string]any)["accepted"])

	resp, body = f.request(t, nethttp.MethodPut, "/api/admin/tickets/"+ticketID+"/priority", adminToken,
		map[string]any{"priority": "high"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "high", body["ticket"].(map[string]any)["priority"])

	resp, body = f.request(t, nethttp.MethodPut, "/api/admin/tickets/"+ticketID+"/solved", adminToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ticket"].(map[string]any)["resolved"])
	assert.NotNil(t, body["ticket"].(map[string]any)["solvedAt"])

	resp, _ = f.request(t, nethttp.MethodDelete, "/api/admin/tickets/"+ticketID, adminToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, body = f.request(t, nethttp.MethodGet, "/api/users/"+userID+"/tickets/"+ticketID, userToken, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestExportOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	userID, userToken := f.registerUser(t, "Priya", "priya@acme.example")
	_, adminToken := f.seedAdmin(t)

	resp, _ := f.request(t, nethttp.MethodPost, "/api/users/"+userID+"/tickets", userToken, ticketPayload())
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	resp, body := f.request(t, nethttp.MethodGet, "/api/admin/tickets/export?duration=all", adminToken, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "tickets_all.csv")
	assert.Contains(t, body["raw"].(string), "Acme Ltd")

	resp, body = f.request(t, nethttp.MethodGet, "/api/admin/tickets/export?duration=week", adminToken, nil)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}
