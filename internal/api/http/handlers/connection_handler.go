package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/observability"
	"github.com/spec-kit/agency-ledger/internal/resilience"
)

// ConnectionHandler exposes the data-access connection state and the
// notifications surfaced to users.
type ConnectionHandler struct {
	manager       *resilience.ConnectionManager
	notifications *resilience.NotificationCenter
	metrics       *observability.Metrics
}

// NewConnectionHandler constructs handler.
func NewConnectionHandler(manager *resilience.ConnectionManager, notifications *resilience.NotificationCenter, metrics *observability.Metrics) *ConnectionHandler {
	return &ConnectionHandler{manager: manager, notifications: notifications, metrics: metrics}
}

// State GET /connection.
func (h *ConnectionHandler) State(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.manager.State()})
}

// Retry POST /connection/retry restarts reconnection after giving up.
func (h *ConnectionHandler) Retry(c *fiber.Ctx) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": h.manager.Retry()})
}

// Notifications GET /connection/notifications.
func (h *ConnectionHandler) Notifications(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.notifications.Recent()})
}

// Metrics GET /metrics.
func (h *ConnectionHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
