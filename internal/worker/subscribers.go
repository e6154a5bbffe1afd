package worker

import (
	"github.com/spec-kit/agency-ledger/internal/audit"
	"github.com/spec-kit/agency-ledger/internal/events"
	"github.com/spec-kit/agency-ledger/internal/service"
)

// StartEventSubscribers registers the post-commit handlers on dispatcher.
// Either subscriber may be nil.
func StartEventSubscribers(dispatcher events.Dispatcher, auditLog *audit.Subscriber, notifications *service.NotificationService) {
	if dispatcher == nil {
		return
	}
	if auditLog != nil {
		auditLog.Register(dispatcher)
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
}
