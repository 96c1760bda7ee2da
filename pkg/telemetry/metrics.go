// Package telemetry exposes prometheus metrics for the chat pipeline.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_turns_started_total",
		Help: "User turns accepted into the pipeline.",
	})
	TurnsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_turns_completed_total",
		Help: "Turns that persisted an assistant reply.",
	})
	TurnsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_turns_failed_total",
		Help: "Turns that failed during retrieval or invocation.",
	})
	RetrievalCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatbot_retrieval_calls_total",
		Help: "Knowledge-index queries issued.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatbot_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency and status for every handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestDuration.WithLabelValues(r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
