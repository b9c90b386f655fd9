package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build independent instances.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests      *prometheus.CounterVec
	apiLatency       *prometheus.HistogramVec
	apiInflight      prometheus.Gauge
	alertsRecorded   *prometheus.CounterVec
	guardianRejected *prometheus.CounterVec
	chatStreams      *prometheus.CounterVec
	reports          *prometheus.CounterVec
	assistantErrors  *prometheus.CounterVec
	rateLimited      prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maia_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maia_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "maia_http_inflight_requests",
			Help: "Requests currently being served",
		}),
		alertsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maia_alerts_recorded_total",
			Help: "Safety alerts persisted by risk level",
		}, []string{"risk_level"}),
		guardianRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maia_guardian_rejected_total",
			Help: "Tool calls answered without an alert",
		}, []string{"reason"}),
		chatStreams: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maia_chat_streams_total",
			Help: "Chat streams by outcome",
		}, []string{"outcome"}),
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maia_reports_total",
			Help: "Report generations by outcome",
		}, []string{"outcome"}),
		assistantErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maia_assistant_errors_total",
			Help: "Conversational service failures by operation",
		}, []string{"op"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "maia_chat_rate_limited_total",
			Help: "Chat requests rejected by the rate limiter",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveAPI(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) AlertRecorded(riskLevel string) {
	if m != nil {
		m.alertsRecorded.WithLabelValues(riskLevel).Inc()
	}
}

func (m *Metrics) GuardianRejected(reason string) {
	if m != nil {
		m.guardianRejected.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ChatStream(outcome string) {
	if m != nil {
		m.chatStreams.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Report(outcome string) {
	if m != nil {
		m.reports.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AssistantError(op string) {
	if m != nil {
		m.assistantErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) RateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}
