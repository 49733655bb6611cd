package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quiz",
		Name:      "connections_active",
		Help:      "Number of open client connections",
	})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "requests_total",
		Help:      "Total number of dispatched requests",
	}, []string{"action", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quiz",
		Name:      "request_duration_seconds",
		Help:      "Time spent handling a request on the worker pool",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	frameErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "frame_errors_total",
		Help:      "Frames that failed to decode, by failure kind",
	}, []string{"reason"})

	poolQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "quiz",
		Name:      "pool_queue_depth",
		Help:      "Tasks waiting for a worker",
	})

	examsSealed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "exams_sealed_total",
		Help:      "Exams graded and sealed, by source",
	}, []string{"source"})

	sweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiz",
		Name:      "sweep_failures_total",
		Help:      "Overdue exams the expiry sweep failed to seal",
	})
)

// Seal sources.
const (
	SourceSubmit = "submit"
	SourceSweep  = "sweep"
)

func ConnectionOpened() { connectionsActive.Inc() }
func ConnectionClosed() { connectionsActive.Dec() }

// ObserveRequest records one dispatched request.
func ObserveRequest(action, status string, elapsed time.Duration) {
	if action == "" {
		action = "unknown"
	}
	requestsTotal.WithLabelValues(action, status).Inc()
	requestDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func FrameError(reason string) { frameErrors.WithLabelValues(reason).Inc() }

func SetQueueDepth(n int) { poolQueueDepth.Set(float64(n)) }

func ExamsSealed(source string, n int) { examsSealed.WithLabelValues(source).Add(float64(n)) }

func SweepFailures(n int) { sweepFailures.Add(float64(n)) }

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
