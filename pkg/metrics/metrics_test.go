package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordBlockMined("transaction")
	m.RecordBlockMined("transaction")
	m.RecordBlockMined("payment")
	m.RecordEventPublished(nil)
	m.RecordEventPublished(errors.New("down"))
	m.RecordPaymentConfirmed()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.blocksMinedTotal.WithLabelValues("transaction")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.blocksMinedTotal.WithLabelValues("payment")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.eventsPublishedTotal.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.paymentsConfirmedTotal))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordHTTPRequest("/api/health", http.MethodGet, http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/api/health",status="200"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
