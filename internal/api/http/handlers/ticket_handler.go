package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/agency-ledger/internal/api/dto"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/internal/service"
)

// TicketHandler manages travel tickets.
type TicketHandler struct {
	service   service.TicketService
	presenter *Presenter
}

// NewTicketHandler constructs handler.
func NewTicketHandler(tickets service.TicketService, presenter *Presenter) *TicketHandler {
	return &TicketHandler{service: tickets, presenter: presenter}
}

func createTicketInput(req dto.CreateTicketRequest, callerID string) service.CreateTicketInput {
	payer := req.PayerUserID
	if payer == "" {
		payer = callerID
	}
	return service.CreateTicketInput{
		TicketNumber: req.TicketNumber,
		AgentID:      req.AgentID,
		PayerUserID:  payer,
		PaymentInput: service.PaymentInput{
			PaidAmount:    req.PaidAmount,
			AmountDue:     req.AmountDue,
			Currency:      req.Currency,
			PaymentMode:   req.PaymentMode,
			PartialAmount: req.PartialAmount,
		},
	}
}

func ticketFilter(c *fiber.Ctx) repository.TicketFilter {
	return repository.TicketFilter{
		AgentID:         c.Query("agent_id"),
		CreatedByUserID: c.Query("created_by"),
		Limit:           queryLimit(c, 100),
	}
}

// Create POST /tickets.
func (h *TicketHandler) Create(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), actor, createTicketInput(req, actor.ID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(*ticket, h.presenter.viewer(c))})
}

// List GET /tickets?agent_id=&created_by=&limit=.
func (h *TicketHandler) List(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext(), ticketFilter(c))
	if err != nil {
		return err
	}
	viewer := h.presenter.viewer(c)
	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, ticketResponse(t, viewer))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(*ticket, h.presenter.viewer(c))})
}

// Update PATCH /tickets/:id.
func (h *TicketHandler) Update(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), actor, c.Params("id"), req.Patch(), req.Currency)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(*ticket, h.presenter.viewer(c))})
}

// Delete DELETE /tickets/:id.
func (h *TicketHandler) Delete(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ServiceTicketHandler manages tickets sold against catalog services.
type ServiceTicketHandler struct {
	service   service.ServiceTicketService
	presenter *Presenter
}

// NewServiceTicketHandler constructs handler.
func NewServiceTicketHandler(tickets service.ServiceTicketService, presenter *Presenter) *ServiceTicketHandler {
	return &ServiceTicketHandler{service: tickets, presenter: presenter}
}

// Create POST /service-tickets.
func (h *ServiceTicketHandler) Create(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateServiceTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), actor, service.CreateServiceTicketInput{
		CreateTicketInput: createTicketInput(req.CreateTicketRequest, actor.ID),
		ServiceID:         req.ServiceID,
		Quantity:          req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": serviceTicketResponse(*ticket, h.presenter.viewer(c))})
}

// List GET /service-tickets.
func (h *ServiceTicketHandler) List(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext(), ticketFilter(c))
	if err != nil {
		return err
	}
	viewer := h.presenter.viewer(c)
	items := make([]dto.ServiceTicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, serviceTicketResponse(t, viewer))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /service-tickets/:id.
func (h *ServiceTicketHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceTicketResponse(*ticket, h.presenter.viewer(c))})
}

// Update PATCH /service-tickets/:id.
func (h *ServiceTicketHandler) Update(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateServiceTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), actor, c.Params("id"), req.ServicePatch(), req.Currency)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceTicketResponse(*ticket, h.presenter.viewer(c))})
}

// Delete DELETE /service-tickets/:id.
func (h *ServiceTicketHandler) Delete(c *fiber.Ctx) error {
	actor, err := callerActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
