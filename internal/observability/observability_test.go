package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-ledger/internal/config"
	"github.com/spec-kit/agency-ledger/internal/resilience"
)

func TestRequestLoggerRecordsRenderedStatus(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return fiber.ErrNotFound
		}
		return c.SendString("ok")
	})

	for _, path := range []string{"/tickets/1", "/tickets/2", "/tickets/missing"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	snap := metrics.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, RouteStats{Route: "/tickets/:id", Method: "GET", Status: 200, Count: 2, AvgMillis: snap.Requests[0].AvgMillis}, snap.Requests[0])
	assert.Equal(t, 404, snap.Requests[1].Status)
}

func TestMetricsTrackRetriesAndConnection(t *testing.T) {
	metrics := NewMetrics()
	var _ resilience.Observer = metrics

	metrics.RecordRetry("tickets.get", "NETWORK_ERROR")
	metrics.RecordRetry("tickets.get", "NETWORK_ERROR")
	metrics.RecordFailure("tickets.get", "NETWORK_ERROR")
	metrics.RecordError("/tickets", "POST", "VALIDATION_FAILED")
	metrics.RecordRequest("/tickets", "POST", 400, 3*time.Millisecond)

	listen := metrics.ConnectionListener()
	listen(resilience.State{Status: resilience.StatusReconnecting, Attempt: 1})
	listen(resilience.State{Status: resilience.StatusOnline})

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Retries["tickets.get|NETWORK_ERROR"])
	assert.Equal(t, int64(1), snap.Failures["tickets.get|NETWORK_ERROR"])
	assert.Equal(t, int64(1), snap.Errors["/tickets|POST|VALIDATION_FAILED"])
	assert.Equal(t, resilience.StatusOnline, snap.Connection.Status)
	assert.Equal(t, int64(1), snap.Transitions[resilience.StatusReconnecting])
	assert.InDelta(t, 3.0, snap.Requests[0].AvgMillis, 0.001)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"}, "api")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
