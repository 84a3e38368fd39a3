package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// HealthHandler exposes liveness/readiness probes and counter snapshots.
type HealthHandler struct {
	metrics *observability.Metrics
	version string
}

// NewHealthHandler constructs handler.
func NewHealthHandler(metrics *observability.Metrics, version string) *HealthHandler {
	return &HealthHandler{metrics: metrics, version: version}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": http.StatusOK, "state": "live"})
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": http.StatusOK, "state": "ready", "version": h.version})
}

// Metrics GET /health/metrics.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	requests, errCounts := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"status":   http.StatusOK,
		"requests": requests,
		"errors":   errCounts,
	})
}
