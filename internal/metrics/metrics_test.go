package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.AuthEvent("login", OutcomeSuccess)
	m.AuthEvent("login", OutcomeFailure)
	m.AuthEvent("login", OutcomeFailure)
	m.AuditDropped()
	m.AuditWriteFailed()
	m.AuditWriteFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.auditWriteFailures))
}

func TestMetricsHandlerExposesRequestHistogram(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/products/:id", http.StatusOK, 15*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `catalog_http_request_duration_seconds_count{method="GET",route="/api/products/:id",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	first, second := New(), New()
	first.AuditDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(first.auditDropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.auditDropped))
}
