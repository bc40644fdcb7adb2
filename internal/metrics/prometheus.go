package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the ping/pong server
type Metrics struct {
	// UDP datagram metrics
	DatagramsReceived prometheus.Counter
	RepliesSent       *prometheus.CounterVec
	Dropped           prometheus.Counter
	DecodeErrors      prometheus.Counter
	SendErrors        prometheus.Counter
	DatagramSize      prometheus.Histogram
	ProcessingTime    prometheus.Histogram

	// Journal metrics
	JournalWrites prometheus.Counter
	JournalErrors prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on the default registerer
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates and registers all metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DatagramsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_datagrams_received_total",
			Help: "Total number of UDP datagrams received",
		}),
		RepliesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pingpong_replies_sent_total",
			Help: "Total number of replies sent, by reply text",
		}, []string{"reply"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_dropped_total",
			Help: "Total number of datagrams that matched no rule",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_decode_errors_total",
			Help: "Total number of datagrams that could not be decoded",
		}),
		SendErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_send_errors_total",
			Help: "Total number of replies that failed to encode or send",
		}),
		DatagramSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pingpong_datagram_size_bytes",
			Help:    "Size of received datagrams in bytes",
			Buckets: prometheus.ExponentialBuckets(8, 2, 8), // 8B to 1KB
		}),
		ProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pingpong_processing_duration_seconds",
			Help:    "Time from receive to reply for a single datagram",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8), // 10µs to ~160ms
		}),

		JournalWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_journal_writes_total",
			Help: "Total number of messages appended to the journal",
		}),
		JournalErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pingpong_journal_errors_total",
			Help: "Total number of failed journal writes",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pingpong_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pingpong_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pingpong_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordDatagram records a received datagram and its size
func (m *Metrics) RecordDatagram(sizeBytes int) {
	m.DatagramsReceived.Inc()
	m.DatagramSize.Observe(float64(sizeBytes))
}

// RecordReply records a reply sent and the time spent handling the datagram
func (m *Metrics) RecordReply(reply string, durationSeconds float64) {
	m.RepliesSent.WithLabelValues(reply).Inc()
	m.ProcessingTime.Observe(durationSeconds)
}

// RecordDropped increments the dropped counter
func (m *Metrics) RecordDropped() {
	m.Dropped.Inc()
}

// RecordDecodeError increments the decode errors counter
func (m *Metrics) RecordDecodeError() {
	m.DecodeErrors.Inc()
}

// RecordSendError increments the send errors counter
func (m *Metrics) RecordSendError() {
	m.SendErrors.Inc()
}

// RecordJournalWrite records the outcome of a journal append
func (m *Metrics) RecordJournalWrite(err error) {
	if err != nil {
		m.JournalErrors.Inc()
		return
	}
	m.JournalWrites.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
