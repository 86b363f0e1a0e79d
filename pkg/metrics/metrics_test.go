package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesChatMetrics(t *testing.T) {
	MessagesSent.WithLabelValues("text").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(MessagesSent.WithLabelValues("text")), float64(1))

	app := fiber.New()
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "chat_messages_sent_total")
	assert.Contains(t, string(body), "chat_online_connections")
}
