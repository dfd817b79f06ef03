// Package metrics defines the Prometheus instrumentation for the
// visibility pipeline and its sinks, plus the HTTP middleware used by the
// API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visephem_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visephem_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	tickDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "visephem_tick_duration_seconds",
			Help:    "Wall-clock duration of one compute+publish tick.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	tickGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "visephem_tick_generation",
			Help: "Generation counter of the most recent snapshot.",
		},
	)

	visibleObjects = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "visephem_visible_objects",
			Help: "Rows in the most recent snapshot.",
		},
	)

	invalidSamples = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "visephem_invalid_samples",
			Help: "Objects whose geometry computation failed in the most recent tick.",
		},
	)

	catalogObjects = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "visephem_catalog_objects",
			Help: "Objects retained after load-time catalog validation.",
		},
	)

	sinkPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visephem_sink_published_total",
			Help: "Snapshots successfully published, per sink.",
		},
		[]string{"sink"},
	)

	sinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visephem_sink_errors_total",
			Help: "Publish failures, per sink.",
		},
		[]string{"sink"},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visephem_stream_connections_total",
			Help: "SSE connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "visephem_streams_active",
			Help: "Currently connected SSE clients.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visephem_stream_messages_total",
			Help: "SSE data messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visephem_stream_bytes_total",
			Help: "Bytes written to SSE clients.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visephem_stream_errors_total",
			Help: "SSE errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		tickDurationSeconds,
		tickGeneration,
		visibleObjects,
		invalidSamples,
		catalogObjects,
		sinkPublishedTotal,
		sinkErrorsTotal,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTick publishes one tick's timing and sample accounting.
func RecordTick(d time.Duration, generation uint64, visible, invalid int) {
	tickDurationSeconds.Observe(d.Seconds())
	tickGeneration.Set(float64(generation))
	visibleObjects.Set(float64(visible))
	invalidSamples.Set(float64(invalid))
}

// SetCatalogObjects records the validated catalog size.
func SetCatalogObjects(n int) {
	catalogObjects.Set(float64(n))
}

// IncSinkPublished counts a successful sink publish.
func IncSinkPublished(sink string) {
	sinkPublishedTotal.WithLabelValues(sink).Inc()
}

// IncSinkErrors counts a sink publish failure.
func IncSinkErrors(sink string) {
	sinkErrorsTotal.WithLabelValues(sink).Inc()
}

// IncStreamConnections counts an SSE connect/disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the active SSE client gauge.
func IncStreamsActive() { streamsActive.Inc() }

// DecStreamsActive decrements the active SSE client gauge.
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamMessages counts an SSE data message.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes counts bytes written to SSE clients.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncStreamErrors counts an SSE error by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush passes through so the SSE handler sees an http.Flusher.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying connection.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
