package gateway

import (
	"net/http"

	"github.com/named-data/ndnplay/fetch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the gateway.
// It is a fetch.TelemetrySink.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal prometheus.Counter
	errorsTotal   prometheus.Counter

	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	srtt          prometheus.Gauge
	rto           prometheus.Gauge
	cwnd          prometheus.Gauge

	queued  prometheus.Gauge
	running prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndnplay_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndnplay_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ndnplay_fetches_total",
			Help: "Completed fetches by request class and result",
		}, []string{"class", "result"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ndnplay_fetch_duration_seconds",
			Help:    "Download time of successful fetches",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"class"}),
		srtt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndnplay_srtt_seconds",
			Help: "Smoothed round trip time after the last fetch",
		}),
		rto: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndnplay_rto_seconds",
			Help: "Retransmission timeout after the last fetch",
		}),
		cwnd: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndnplay_congestion_window",
			Help: "Congestion window after the last fetch",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndnplay_queue_depth",
			Help: "Fetches waiting for admission",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndnplay_fetches_running",
			Help: "Fetches currently running",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.fetchesTotal,
		m.fetchDuration,
		m.srtt,
		m.rto,
		m.cwnd,
		m.queued,
		m.running,
	)
	return m
}

// Record implements fetch.TelemetrySink.
func (m *Metrics) Record(s fetch.Sample) {
	class := s.Class.String()
	m.fetchesTotal.WithLabelValues(class, s.Kind.String()).Inc()
	if s.Kind != fetch.SampleSuccess || s.Cached {
		return
	}
	m.fetchDuration.WithLabelValues(class).Observe(s.Duration.Seconds())
	m.srtt.Set(s.SRTT.Seconds())
	m.rto.Set(s.RTO.Seconds())
	m.cwnd.Set(float64(s.Window))
}

// SetQueue sets the scheduler gauges.
func (m *Metrics) SetQueue(queued, running int) {
	m.queued.Set(float64(queued))
	m.running.Set(float64(running))
}

// Handler serves the metrics. updateGauges is called before each scrape.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}

// statusWriter captures the status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestMiddleware counts requests and error responses.
func (m *Metrics) RequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrap := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrap, r)
		m.requestsTotal.Inc()
		if wrap.status >= 400 {
			m.errorsTotal.Inc()
		}
	})
}
