package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type instrumentation struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	cacheRequests *prometheus.CounterVec
	calculations  prometheus.Counter
}

func newInstrumentation(reg prometheus.Registerer) *instrumentation {
	factory := promauto.With(reg)
	return &instrumentation{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saas_metrics_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "saas_metrics_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saas_metrics_cache_requests_total",
				Help: "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
		calculations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "saas_metrics_calculations_total",
				Help: "Total number of input snapshots derived and classified",
			},
		),
	}
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// wrap applies request ID propagation, metrics and access logging to next.
// route is the fixed label used for metrics so that paths do not explode
// label cardinality.
func (h *handler) wrap(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(withRequestID(r.Context(), requestID)))

		elapsed := time.Since(start)
		h.instr.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		h.instr.duration.WithLabelValues(route).Observe(elapsed.Seconds())

		h.logger.Debug("request served",
			zap.String("op", "server.wrap"),
			zap.String("requestId", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}
