package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/repository"
)

const webhookTimeout = 5 * time.Second

// BalanceAlert reports an agent whose balance dropped below zero.
type BalanceAlert struct {
	AgentID   string    `json:"agentId"`
	AgentName string    `json:"agentName"`
	Balance   float64   `json:"balance"`
	Cause     string    `json:"cause"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookPoster delivers a JSON body to an outbound webhook.
type WebhookPoster func(ctx context.Context, url string, body any) error

// NotificationService alerts operators about agents running into debt.
type NotificationService struct {
	dispatcher events.Dispatcher
	agents     repository.AgentRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
	post       WebhookPoster
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, agents repository.AgentRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		agents:     agents,
		logger:     logger,
		cfg:        cfg,
		post:       postJSON,
	}
}

// WithPoster replaces the webhook transport.
func (n *NotificationService) WithPoster(post WebhookPoster) *NotificationService {
	n.post = post
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || !n.cfg.NegativeBalanceAlert {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventServiceTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventAgentBalanceUpdated, n.handleAgentBalanceUpdated)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	var agentID string
	switch p := event.Payload.(type) {
	case events.TicketCreatedPayload:
		agentID = p.Ticket.AgentID
	case events.ServiceTicketCreatedPayload:
		agentID = p.Ticket.AgentID
	default:
		return nil
	}
	agent, err := n.agents.GetByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("load agent %s: %w", agentID, err)
	}
	n.checkBalance(ctx, *agent, string(event.Type), event.Timestamp)
	return nil
}

func (n *NotificationService) handleAgentBalanceUpdated(ctx context.Context, event events.Event) error {
	p, ok := event.Payload.(events.AgentBalanceUpdatedPayload)
	if !ok {
		return nil
	}
	if p.Change.OldBalance < 0 {
		return nil
	}
	n.checkBalance(ctx, p.Agent, string(event.Type), event.Timestamp)
	return nil
}

func (n *NotificationService) checkBalance(ctx context.Context, agent domain.Agent, cause string, ts time.Time) {
	if agent.Balance >= 0 {
		return
	}
	alert := BalanceAlert{
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Balance:   agent.Balance,
		Cause:     cause,
		Timestamp: ts,
	}
	n.logger.Warn("agent balance negative",
		zap.String("agent_id", agent.ID),
		zap.Float64("balance", agent.Balance),
		zap.String("cause", cause))
	n.sendWebhook(ctx, alert)
}

func (n *NotificationService) sendWebhook(ctx context.Context, alert BalanceAlert) {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" || n.post == nil {
		return
	}
	if err := n.post(ctx, url, alert); err != nil {
		n.logger.Warn("balance webhook failed", zap.String("url", url), zap.Error(err))
	}
}

func postJSON(_ context.Context, url string, body any) error {
	status, _, errs := fiber.Post(url).JSON(body).Timeout(webhookTimeout).Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if status >= fiber.StatusBadRequest {
		return fmt.Errorf("webhook responded %d", status)
	}
	return nil
}
