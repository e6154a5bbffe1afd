package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/dto"
	"github.com/spec-kit/agency-ledger/internal/service"
)

// CatalogHandler exposes the services catalog.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalog}
}

// List GET /services?active=true.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.QueryBool("active"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /services/:id.
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	svc, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": svc})
}

// Create POST /services.
func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateServiceRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	svc, err := h.service.Create(c.UserContext(), actor, service.ServiceInput{
		Name:      req.Name,
		BasePrice: req.BasePrice,
		Currency:  req.Currency,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": svc})
}

// Update PATCH /services/:id.
func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateServiceRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	svc, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.ServiceUpdate{
		Name:      req.Name,
		BasePrice: req.BasePrice,
		Currency:  req.Currency,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": svc})
}
