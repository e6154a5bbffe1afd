package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/dto"
	"github.com/spec-kit/agency-ledger/internal/service"
)

// AgentHandler manages agents and their balances.
type AgentHandler struct {
	agents    *service.AgentService
	balances  *service.BalanceService
	stats     *service.StatsService
	presenter *Presenter
}

// NewAgentHandler constructs handler.
func NewAgentHandler(agents *service.AgentService, balances *service.BalanceService, stats *service.StatsService, presenter *Presenter) *AgentHandler {
	return &AgentHandler{agents: agents, balances: balances, stats: stats, presenter: presenter}
}

// List GET /agents.
func (h *AgentHandler) List(c *fiber.Ctx) error {
	agents, err := h.agents.List(c.UserContext())
	if err != nil {
		return err
	}
	viewer := h.presenter.viewer(c)
	items := make([]dto.AgentResponse, 0, len(agents))
	for _, a := range agents {
		items = append(items, agentResponse(a, viewer))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /agents/:id.
func (h *AgentHandler) Get(c *fiber.Ctx) error {
	agent, err := h.agents.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(*agent, h.presenter.viewer(c))})
}

// Create POST /agents.
func (h *AgentHandler) Create(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateAgentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	agent, err := h.agents.Create(c.UserContext(), actor, service.CreateAgentInput{
		Name:              req.Name,
		OpeningBalance:    req.OpeningBalance,
		Currency:          req.Currency,
		PreferredCurrency: req.PreferredCurrency,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": agentResponse(*agent, h.presenter.viewer(c))})
}

// UpdateBalance POST /agents/:id/balance.
func (h *AgentHandler) UpdateBalance(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.BalanceRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	agent, err := h.balances.UpdateAgentBalance(c.UserContext(), actor, c.Params("id"), service.BalanceInput{
		Op:       req.Op,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(*agent, h.presenter.viewer(c))})
}

// Summary GET /agents/:id/summary.
func (h *AgentHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.stats.AgentSummary(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	viewer := h.presenter.viewer(c)
	return c.JSON(fiber.Map{"data": dto.AgentSummaryResponse{
		Agent:           agentResponse(summary.Agent, viewer),
		TicketCount:     summary.TicketCount,
		TotalDue:        summary.TotalDue,
		Collected:       summary.Collected,
		OutstandingDebt: summary.OutstandingDebt,
		Display: map[string]string{
			"total_due":        money(summary.TotalDue, viewer).Display,
			"collected":        money(summary.Collected, viewer).Display,
			"outstanding_debt": money(summary.OutstandingDebt, viewer).Display,
		},
	}})
}
