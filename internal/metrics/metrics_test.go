package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	ClicksTotal.Inc()
	LocalLoadsTotal.WithLabelValues("ok").Inc()
	RateLimitedTotal.WithLabelValues("memory").Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/metrics", nil))
	body, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, "webkart_clicks_total")
	assert.Contains(t, s, `webkart_local_loads_total{result="ok"}`)
	assert.Contains(t, s, `webkart_rate_limited_total{backend="memory"}`)
	assert.Contains(t, s, "webkart_remote_duration_ms_bucket")
}
