package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/clock"
	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/domain"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/repository"
	"github.com/spec-kit/agency-ledger/pkg/util/errorutil"
)

// epsilon absorbs floating point noise from currency conversion when
// comparing base-currency amounts.
const epsilon = 1e-6

// Dependencies bundles the repositories and collaborators shared by the
// ledger services.
type Dependencies struct {
	TicketRepo        repository.TicketRepository
	ServiceTicketRepo repository.ServiceTicketRepository
	AgentRepo         repository.AgentRepository
	UserRepo          repository.UserRepository
	CurrencyRepo      repository.CurrencyRepository
	ServiceRepo       repository.ServiceRepository
	Dispatcher        events.Dispatcher
	Clock             clock.Clock
	Logger            *zap.Logger
	Ledger            config.LedgerConfig
}

func (d Dependencies) clock() clock.Clock {
	if d.Clock == nil {
		return clock.Real()
	}
	return d.Clock
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// publisher stamps and publishes post-commit events.
type publisher struct {
	dispatcher events.Dispatcher
	clock      clock.Clock
}

func newPublisher(deps Dependencies) publisher {
	return publisher{dispatcher: deps.Dispatcher, clock: deps.clock()}
}

func (p publisher) now() time.Time {
	return p.clock.Now().UTC()
}

// publish is best effort: the primary write already succeeded.
func (p publisher) publish(ctx context.Context, eventType events.EventType, actor domain.Actor, payload any) {
	if p.dispatcher == nil {
		return
	}
	_ = p.dispatcher.Publish(ctx, events.New(eventType, actor, p.now(), payload))
}

func requireAdmin(actor domain.Actor, action string) error {
	if !actor.IsAdmin() {
		return errorutil.NewForbidden("only administrators may " + action)
	}
	return nil
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func validateNonNegative(field string, v float64) error {
	if !validAmount(v) || v < 0 {
		return errorutil.NewValidationError(field+" must be a non-negative amount", map[string]any{"field": field, "value": v})
	}
	return nil
}
