package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/repository"
	apperrors "github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// LogHandler serves the audit trail.
type LogHandler struct {
	logs repository.LogRepository
	feed *audit.Feed
}

// NewLogHandler constructs handler. feed may be nil when the live feed is
// disabled.
func NewLogHandler(logs repository.LogRepository, feed *audit.Feed) *LogHandler {
	return &LogHandler{logs: logs, feed: feed}
}

// Recent GET /logs?limit=.
func (h *LogHandler) Recent(c *fiber.Ctx) error {
	entries, err := h.logs.Recent(c.UserContext(), queryLimit(c, 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// ByActor GET /logs/users/:id.
func (h *LogHandler) ByActor(c *fiber.Ctx) error {
	entries, err := h.logs.ByActor(c.UserContext(), c.Params("id"), queryLimit(c, 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// ByTicket GET /tickets/:id/logs.
func (h *LogHandler) ByTicket(c *fiber.Ctx) error {
	entries, err := h.logs.ByTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Feed GET /logs/feed returns the live activity view.
func (h *LogHandler) Feed(c *fiber.Ctx) error {
	if h.feed == nil {
		return apperrors.NewNotFound("activity feed", nil)
	}
	entries, err := h.feed.Entries()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}
