// Package resilience wraps every call to the document store with uniform
// failure handling: error classification, bounded retry with backoff, an
// offline gate, a reconnection state machine and subscription recovery.
package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/spec-kit/agency-ledger/internal/i18n"
	"github.com/spec-kit/agency-ledger/internal/store"
)

// ErrorKind is the classified failure class of a data-access error.
type ErrorKind string

const (
	KindNetwork            ErrorKind = "NETWORK_ERROR"
	KindServiceUnavailable ErrorKind = "SERVICE_UNAVAILABLE"
	KindDeadlineExceeded   ErrorKind = "DEADLINE_EXCEEDED"
	KindResourceExhausted  ErrorKind = "RESOURCE_EXHAUSTED"
	KindPermissionDenied   ErrorKind = "PERMISSION_DENIED"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindAlreadyExists      ErrorKind = "ALREADY_EXISTS"
	KindUnknown            ErrorKind = "UNKNOWN"
)

// Retryable reports whether failures of this kind are worth retrying.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetwork, KindServiceUnavailable, KindDeadlineExceeded, KindResourceExhausted:
		return true
	default:
		return false
	}
}

// HTTPStatus maps the kind onto a response status.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindNetwork, KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindDeadlineExceeded:
		return http.StatusGatewayTimeout
	case KindResourceExhausted:
		return http.StatusTooManyRequests
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (k ErrorKind) messageKey() i18n.Key {
	switch k {
	case KindNetwork:
		return i18n.NotifyNetwork
	case KindServiceUnavailable:
		return i18n.NotifyUnavailable
	case KindDeadlineExceeded:
		return i18n.NotifyDeadline
	case KindResourceExhausted:
		return i18n.NotifyExhausted
	case KindPermissionDenied:
		return i18n.NotifyPermission
	case KindNotFound:
		return i18n.NotifyNotFound
	case KindAlreadyExists:
		return i18n.NotifyAlreadyExists
	default:
		return i18n.NotifyUnknown
	}
}

// classified lets backends report their own kind.
type classified interface {
	Kind() ErrorKind
}

// Patterns are matched case-insensitively against the error text, in
// order; the first matching kind wins.
var patterns = []struct {
	kind    ErrorKind
	needles []string
}{
	{KindPermissionDenied, []string{"permission-denied", "permission denied", "unauthorized", "unauthenticated", "forbidden"}},
	{KindNotFound, []string{"not-found", "not found", "no rows"}},
	{KindAlreadyExists, []string{"already-exists", "already exists", "duplicate key"}},
	{KindResourceExhausted, []string{"resource-exhausted", "resource exhausted", "quota", "too many requests", "rate limit"}},
	{KindDeadlineExceeded, []string{"deadline-exceeded", "deadline exceeded", "timeout", "timed out"}},
	{KindServiceUnavailable, []string{"unavailable", "service unavailable", "loading the dataset", "server closed"}},
	{KindNetwork, []string{"fetch", "network", "offline", "connection refused", "connection reset", "no such host", "broken pipe", "i/o timeout", "unreachable", "eof"}},
}

// Classify maps err onto an ErrorKind. Typed errors are inspected first,
// then the message is matched against known patterns.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	var c classified
	if errors.As(err, &c) {
		return c.Kind()
	}
	switch {
	case errors.Is(err, ErrOffline):
		return KindNetwork
	case errors.Is(err, context.DeadlineExceeded):
		return KindDeadlineExceeded
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, store.ErrClosed):
		return KindServiceUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindDeadlineExceeded
		}
		return KindNetwork
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		for _, needle := range p.needles {
			if strings.Contains(msg, needle) {
				return p.kind
			}
		}
	}
	return KindUnknown
}

// KindOf returns the kind of err, or "" for nil.
func KindOf(err error) ErrorKind {
	return Classify(err)
}

// IsNotFound reports whether err is a classified missing document.
func IsNotFound(err error) bool {
	return err != nil && Classify(err) == KindNotFound
}
