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

	"github.com/vietlawhub/legal-gateway/internal/core/domain"
)

// HTTPServerMetrics holds the API-side registry: HTTP server metrics plus the
// corrective-retrieval pipeline metrics.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatOutcomeTotal   *prometheus.CounterVec
	chatSearchMode     *prometheus.CounterVec
	chatGraderVerdicts *prometheus.CounterVec
	chatEscalations    *prometheus.CounterVec
	chatSources        *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lgw",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lgw",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lgw",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatOutcomeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lgw",
			Subsystem: "chat",
			Name:      "outcomes_total",
			Help:      "Completed chat requests by final outcome.",
		},
		[]string{"service", "outcome"},
	)
	chatSearchMode := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lgw",
			Subsystem: "chat",
			Name:      "search_mode_total",
			Help:      "Initial retrieval mode chosen by the query router.",
		},
		[]string{"service", "mode"},
	)
	chatGraderVerdicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lgw",
			Subsystem: "chat",
			Name:      "grader_verdicts_total",
			Help:      "Relevance grader verdicts by grading round.",
		},
		[]string{"service", "round", "verdict"},
	)
	chatEscalations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lgw",
			Subsystem: "chat",
			Name:      "hyde_escalations_total",
			Help:      "Fallbacks into hypothetical-document retrieval.",
		},
		[]string{"service"},
	)
	chatSources := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lgw",
			Subsystem: "chat",
			Name:      "answer_sources",
			Help:      "Distribution of distinct sources per answered request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lgw",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat pipeline execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatOutcomeTotal,
		chatSearchMode,
		chatGraderVerdicts,
		chatEscalations,
		chatSources,
		chatDuration,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatOutcomeTotal:   chatOutcomeTotal,
		chatSearchMode:     chatSearchMode,
		chatGraderVerdicts: chatGraderVerdicts,
		chatEscalations:    chatEscalations,
		chatSources:        chatSources,
		chatDuration:       chatDuration,
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

// RecordChatObservation is called by the HTTP adapter once per completed chat
// request.
func (m *HTTPServerMetrics) RecordChatObservation(service string, sourceCount int, duration time.Duration) {
	m.chatSources.WithLabelValues(service).Observe(float64(sourceCount))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// ChatObserver adapts the registry to the chat use case's observer contract.
type ChatObserver struct {
	metrics *HTTPServerMetrics
	service string
}

func (m *HTTPServerMetrics) ChatObserver(service string) *ChatObserver {
	return &ChatObserver{metrics: m, service: service}
}

func (o *ChatObserver) SearchMode(mode domain.SearchMode) {
	o.metrics.chatSearchMode.WithLabelValues(o.service, string(mode)).Inc()
}

func (o *ChatObserver) GraderVerdict(round int, relevant bool) {
	verdict := "not_relevant"
	if relevant {
		verdict = "relevant"
	}
	o.metrics.chatGraderVerdicts.WithLabelValues(o.service, strconv.Itoa(round), verdict).Inc()
}

func (o *ChatObserver) Escalated() {
	o.metrics.chatEscalations.WithLabelValues(o.service).Inc()
}

func (o *ChatObserver) Outcome(outcome string) {
	o.metrics.chatOutcomeTotal.WithLabelValues(o.service, outcome).Inc()
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
