// Package metrics exposes prometheus instrumentation for the API and the
// ingestion worker, each on its own registry.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	qaRequestsTotal     *prometheus.CounterVec
	qaRetrievalHitTotal *prometheus.CounterVec
	qaNoContextTotal    *prometheus.CounterVec
	qaRetrievedChunks   *prometheus.HistogramVec
	qaFallbackTotal     *prometheus.CounterVec
	qaSelfCheckPasses   *prometheus.HistogramVec
	qaRerankFallbacks   *prometheus.CounterVec
	qaDuration          *prometheus.HistogramVec

	indexRebuildTotal    *prometheus.CounterVec
	indexRebuildDuration *prometheus.HistogramVec
	indexChunksTotal     *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gf",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gf",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gf",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	qaRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "requests_total",
			Help:      "Total successful question answering requests.",
		},
		[]string{"service", "endpoint"},
	)
	qaRetrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "retrieval_hit_total",
			Help:      "Total QA requests with at least one retrieved chunk.",
		},
		[]string{"service", "endpoint"},
	)
	qaNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "no_context_total",
			Help:      "Total QA requests that retrieved nothing.",
		},
		[]string{"service", "endpoint"},
	)
	qaRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful QA request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	qaFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "fallback_answers_total",
			Help:      "Total QA requests answered with the fallback sentence.",
		},
		[]string{"service", "endpoint"},
	)
	qaSelfCheckPasses := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "self_check_passes",
			Help:      "Distribution of answer attempts per QA request.",
			Buckets:   []float64{1, 2, 3},
		},
		[]string{"service", "endpoint"},
	)
	qaRerankFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "rerank_fallback_total",
			Help:      "Total rerank calls that fell back to retrieval order.",
		},
		[]string{"service"},
	)
	qaDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gf",
			Subsystem: "qa",
			Name:      "duration_seconds",
			Help:      "QA pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	indexRebuildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gf",
			Subsystem: "index",
			Name:      "rebuild_total",
			Help:      "Total index rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	indexRebuildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gf",
			Subsystem: "index",
			Name:      "rebuild_duration_seconds",
			Help:      "Index rebuild duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"service"},
	)
	indexChunksTotal := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gf",
			Subsystem: "index",
			Name:      "chunks",
			Help:      "Chunks in the current index snapshot.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal, requestDuration, requestInFlight,
		qaRequestsTotal, qaRetrievalHitTotal, qaNoContextTotal, qaRetrievedChunks,
		qaFallbackTotal, qaSelfCheckPasses, qaRerankFallbacks, qaDuration,
		indexRebuildTotal, indexRebuildDuration, indexChunksTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		qaRequestsTotal:      qaRequestsTotal,
		qaRetrievalHitTotal:  qaRetrievalHitTotal,
		qaNoContextTotal:     qaNoContextTotal,
		qaRetrievedChunks:    qaRetrievedChunks,
		qaFallbackTotal:      qaFallbackTotal,
		qaSelfCheckPasses:    qaSelfCheckPasses,
		qaRerankFallbacks:    qaRerankFallbacks,
		qaDuration:           qaDuration,
		indexRebuildTotal:    indexRebuildTotal,
		indexRebuildDuration: indexRebuildDuration,
		indexChunksTotal:     indexChunksTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordQAObservation(service, endpoint string, chunkCount int, duration time.Duration) {
	m.qaRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.qaRetrievedChunks.WithLabelValues(service, endpoint).Observe(float64(chunkCount))
	m.qaDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if chunkCount > 0 {
		m.qaRetrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.qaNoContextTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordFallbackAnswer(service, endpoint string) {
	m.qaFallbackTotal.WithLabelValues(service, endpoint).Inc()
}

func (m *HTTPServerMetrics) RecordSelfCheckPasses(service, endpoint string, attempts int) {
	if attempts <= 0 {
		return
	}
	m.qaSelfCheckPasses.WithLabelValues(service, endpoint).Observe(float64(attempts))
}

func (m *HTTPServerMetrics) RecordRerankFallback(service string) {
	m.qaRerankFallbacks.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordIndexRebuild(service string, chunks int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.indexRebuildTotal.WithLabelValues(service, status).Inc()
	if err == nil {
		m.indexRebuildDuration.WithLabelValues(service).Observe(duration.Seconds())
		m.indexChunksTotal.WithLabelValues(service).Set(float64(chunks))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
