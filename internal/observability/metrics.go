package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RelayConnections prometheus.Gauge
	RelayRooms       prometheus.Gauge
	RelayMessages    *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	LedgerOps        *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RelayConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_connections",
			Help:      "Number of live signaling connections.",
		}),
		RelayRooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_rooms",
			Help:      "Number of signaling rooms with at least one member.",
		}),
		RelayMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_messages_total",
			Help:      "Signaling messages by type and outcome.",
		}, []string{"type", "outcome"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Swap request and session transitions.",
		}, []string{"machine", "transition"}),
		LedgerOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Lifecycle notifications handed to the sink.",
		}, []string{"type", "outcome"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "endpoint", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "endpoint"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveTransition(machine, transition string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(machine, transition).Inc()
}

func (m *Metrics) ObserveLedger(op string, err error) {
	if m == nil {
		return
	}
	m.LedgerOps.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) ObserveRelay(msgType string, err error) {
	if m == nil {
		return
	}
	m.RelayMessages.WithLabelValues(msgType, outcome(err)).Inc()
}

func (m *Metrics) ObserveNotification(notificationType string, err error) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(notificationType, outcome(err)).Inc()
}

func (m *Metrics) ObserveHTTP(method, endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.RelayConnections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.RelayConnections.Dec()
	}
}

func (m *Metrics) RoomOpened() {
	if m != nil {
		m.RelayRooms.Inc()
	}
}

func (m *Metrics) RoomClosed() {
	if m != nil {
		m.RelayRooms.Dec()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
