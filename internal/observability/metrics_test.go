package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("session", "completed")
		m.ObserveLedger("hold", nil)
		m.ObserveRelay("offer", errors.New("boom"))
		m.ObserveNotification("session.completed", nil)
		m.ObserveHTTP("GET", "/healthz", "200", time.Millisecond)
		m.ConnectionOpened()
		m.ConnectionClosed()
		m.RoomOpened()
		m.RoomClosed()
	})
	assert.NotNil(t, m.Handler())
}

func TestMetricsCountOutcomes(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveLedger("settle", nil)
	m.ObserveLedger("settle", errors.New("insufficient funds"))
	m.ObserveLedger("settle", nil)
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.LedgerOps.WithLabelValues("settle", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LedgerOps.WithLabelValues("settle", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RelayConnections))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_ledger_operations_total")
}
