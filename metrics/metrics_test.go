package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.MessageBroadcast()
	c.MessageDropped()
	c.ChainEventBroadcast()

	require.Equal(t, float64(1), testutil.ToFloat64(c.connections))
	require.Equal(t, float64(1), testutil.ToFloat64(c.broadcastTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(c.droppedTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(c.chainEvents))
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.MessageBroadcast()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "chaintalk_messages_broadcast_total"))
}
