package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/dto"
	"github.com/spec-kit/agency-ledger/internal/service"
)

// CurrencyHandler exposes the exchange-rate table.
type CurrencyHandler struct {
	service *service.CurrencyService
}

// NewCurrencyHandler constructs handler.
func NewCurrencyHandler(currencies *service.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{service: currencies}
}

// List GET /currencies?active=true.
func (h *CurrencyHandler) List(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.QueryBool("active"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /currencies.
func (h *CurrencyHandler) Create(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateCurrencyRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	created, err := h.service.Create(c.UserContext(), actor, service.CurrencyInput{
		Code:         req.Code,
		Name:         req.Name,
		Symbol:       req.Symbol,
		ExchangeRate: req.ExchangeRate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// Update PATCH /currencies/:code.
func (h *CurrencyHandler) Update(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCurrencyRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	updated, err := h.service.Update(c.UserContext(), actor, c.Params("code"), service.CurrencyUpdate{
		Name:         req.Name,
		Symbol:       req.Symbol,
		ExchangeRate: req.ExchangeRate,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}

// Delete DELETE /currencies/:code.
func (h *CurrencyHandler) Delete(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("code")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
