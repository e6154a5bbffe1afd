package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/agency-ledger/internal/store"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{errors.New("TypeError: Failed to fetch"), KindNetwork},
		{errors.New("client is offline"), KindNetwork},
		{errors.New("dial tcp 10.0.0.1:5432: connect: connection refused"), KindNetwork},
		{errors.New("unavailable: backend restarting"), KindServiceUnavailable},
		{errors.New("Deadline-Exceeded"), KindDeadlineExceeded},
		{errors.New("resource-exhausted: quota exceeded"), KindResourceExhausted},
		{errors.New("Missing or insufficient permissions: permission-denied"), KindPermissionDenied},
		{errors.New("document not found"), KindNotFound},
		{errors.New("document already exists"), KindAlreadyExists},
		{errors.New("something odd"), KindUnknown},
		{context.DeadlineExceeded, KindDeadlineExceeded},
		{fmt.Errorf("get: %w", store.ErrNotFound), KindNotFound},
		{store.ErrClosed, KindServiceUnavailable},
		{timeoutErr{}, KindDeadlineExceeded},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, KindNetwork},
		{&Error{Kind: KindResourceExhausted, Err: errors.New("x")}, KindResourceExhausted},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), tc.err.Error())
	}
	assert.Equal(t, ErrorKind(""), Classify(nil))
}

func TestErrorKindRetryable(t *testing.T) {
	assert.True(t, KindNetwork.Retryable())
	assert.True(t, KindResourceExhausted.Retryable())
	assert.False(t, KindPermissionDenied.Retryable())
	assert.False(t, KindNotFound.Retryable())
	assert.False(t, KindUnknown.Retryable())
}

func TestErrorCodes(t *testing.T) {
	err := &Error{Op: "tickets.get", Kind: KindDeadlineExceeded, Attempts: 3, Err: context.DeadlineExceeded}
	assert.Equal(t, "DEADLINE_EXCEEDED", err.ErrorCode())
	assert.Equal(t, http.StatusGatewayTimeout, err.StatusCode())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
