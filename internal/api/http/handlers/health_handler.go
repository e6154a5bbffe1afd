package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/resilience"
)

// Pinger reports backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	driver      string
	backend     Pinger
	connection  *resilience.ConnectionManager
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version, driver string, backend Pinger, connection *resilience.ConnectionManager) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, driver: driver, backend: backend, connection: connection}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness by pinging the document store.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	if err := h.backend.Ping(ctx); err != nil {
		depStatus[h.driver] = err.Error()
		ready = false
	} else {
		depStatus[h.driver] = "ok"
	}
	if h.connection != nil {
		depStatus["connection"] = h.connection.State()
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
