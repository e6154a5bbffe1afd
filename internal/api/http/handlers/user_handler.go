package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/dto"
	"github.com/spec-kit/agency-ledger/internal/service"
	apperrors "github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// UserHandler manages application users, their credit and stats.
type UserHandler struct {
	users     *service.UserService
	balances  *service.BalanceService
	stats     *service.StatsService
	presenter *Presenter
}

// NewUserHandler constructs handler.
func NewUserHandler(users *service.UserService, balances *service.BalanceService, stats *service.StatsService, presenter *Presenter) *UserHandler {
	return &UserHandler{users: users, balances: balances, stats: stats, presenter: presenter}
}

// Me GET /users/me.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(*user, h.presenter.viewer(c))})
}

// List GET /users.
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	viewer := h.presenter.viewer(c)
	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, userResponse(u, viewer))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /users/:id.
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(*user, h.presenter.viewer(c))})
}

// UpdateRole PUT /users/:id/role.
func (h *UserHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(*user, h.presenter.viewer(c))})
}

// UpdateBalance POST /users/:id/balance.
func (h *UserHandler) UpdateBalance(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.BalanceRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.balances.UpdateUserBalance(c.UserContext(), actor, c.Params("id"), service.BalanceInput{
		Op:       req.Op,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(*user, h.presenter.viewer(c))})
}

// PreferredCurrency PUT /users/:id/preferred-currency.
func (h *UserHandler) PreferredCurrency(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.PreferredCurrencyRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.SetPreferredCurrency(c.UserContext(), actor, c.Params("id"), req.Currency)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(*user, h.presenter.viewerFor(c, user.PreferredCurrency))})
}

// Stats GET /users/:id/stats. Users may read their own stats; admins
// may read anyone's.
func (h *UserHandler) Stats(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if id == "me" {
		id = actor.ID
	}
	if id != actor.ID && !actor.IsAdmin() {
		return apperrors.NewForbidden("cannot read another user's stats")
	}
	stats, err := h.stats.UserStats(c.UserContext(), id)
	if err != nil {
		return err
	}
	viewer := h.presenter.viewer(c)
	return c.JSON(fiber.Map{"data": dto.UserStatsResponse{
		UserStats: stats,
		Display: map[string]string{
			"unpaid_debt": money(stats.UnpaidDebt, viewer).Display,
			"total_paid":  money(stats.TotalPaid, viewer).Display,
			"total_due":   money(stats.TotalDue, viewer).Display,
		},
	}})
}
