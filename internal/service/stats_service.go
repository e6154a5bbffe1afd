package service

import (
	"context"

	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/repository"
)

// AgentSummary reports an agent's balance next to its ticket totals.
type AgentSummary struct {
	Agent           domain.Agent `json:"agent"`
	TicketCount     int          `json:"ticketCount"`
	TotalDue        float64      `json:"totalDue"`
	Collected       float64      `json:"collected"`
	OutstandingDebt float64      `json:"outstandingDebt"`
}

// StatsService derives aggregates from tickets on every read.
type StatsService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	agents  repository.AgentRepository
}

// NewStatsService constructs StatsService.
func NewStatsService(deps Dependencies) *StatsService {
	return &StatsService{tickets: deps.TicketRepo, users: deps.UserRepo, agents: deps.AgentRepo}
}

// UserStats computes a user's debt from the tickets they created.
func (s *StatsService) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return domain.UserStats{}, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{CreatedByUserID: userID})
	if err != nil {
		return domain.UserStats{}, err
	}
	return ComputeUserStats(userID, tickets), nil
}

// ComputeUserStats aggregates tickets. Paid tickets contribute nothing to
// debt whatever partial payment they still carry.
func ComputeUserStats(userID string, tickets []domain.Ticket) domain.UserStats {
	stats := domain.UserStats{UserID: userID, TicketCount: len(tickets)}
	for _, t := range tickets {
		stats.TotalDue += t.AmountDue
		stats.TotalPaid += t.Collected()
		stats.UnpaidDebt += t.OutstandingDebt()
	}
	return stats
}

// AgentSummary loads an agent and totals the tickets issued against it.
func (s *StatsService) AgentSummary(ctx context.Context, agentID string) (AgentSummary, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return AgentSummary{}, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{AgentID: agentID})
	if err != nil {
		return AgentSummary{}, err
	}
	summary := AgentSummary{Agent: *agent, TicketCount: len(tickets)}
	for _, t := range tickets {
		summary.TotalDue += t.AmountDue
		summary.Collected += t.Collected()
		summary.OutstandingDebt += t.OutstandingDebt()
	}
	return summary, nil
}
