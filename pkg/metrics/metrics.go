package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the ledger server.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	blocksMinedTotal        *prometheus.CounterVec
	signaturesRejectedTotal prometheus.Counter
	paymentsConfirmedTotal  prometheus.Counter
	eventsPublishedTotal    *prometheus.CounterVec
	notificationsTotal      *prometheus.CounterVec
}

// NewMetrics registers every collector on registry. A nil registry gets a fresh one
// with the Go and process collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		blocksMinedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_blocks_mined_total",
				Help: "Total number of blocks appended to the ledger by origin",
			},
			[]string{"origin"},
		),
		signaturesRejectedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_signatures_rejected_total",
				Help: "Total number of transactions refused because the wallet signature did not verify",
			},
		),
		paymentsConfirmedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_payments_confirmed_total",
				Help: "Total number of confirmed payments",
			},
		),
		eventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_published_total",
				Help: "Total number of block events published by status",
			},
			[]string{"status"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_notifications_total",
				Help: "Total number of payment notifications by status",
			},
			[]string{"status"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) RecordBlockMined(origin string) {
	m.blocksMinedTotal.WithLabelValues(origin).Inc()
}

func (m *Metrics) RecordSignatureRejected() {
	m.signaturesRejectedTotal.Inc()
}

func (m *Metrics) RecordPaymentConfirmed() {
	m.paymentsConfirmedTotal.Inc()
}

func (m *Metrics) RecordEventPublished(err error) {
	m.eventsPublishedTotal.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) RecordNotification(err error) {
	m.notificationsTotal.WithLabelValues(status(err)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
