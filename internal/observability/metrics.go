package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	MessagesHandled     *prometheus.CounterVec
	TemplateHits        prometheus.Counter
	ValidatorRejections *prometheus.CounterVec
	CompletionCalls     *prometheus.CounterVec
	ResultCacheHits     prometheus.Counter
	QueryDuration       prometheus.Histogram
	ActiveSessionLocks  prometheus.Gauge
	CompressionRuns     *prometheus.CounterVec

	stageWindow *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		MessagesHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Chat messages handled, by outcome.",
		}, []string{"outcome"}),
		TemplateHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_hits_total",
			Help:      "Messages answered by the template fast path.",
		}),
		ValidatorRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validator_rejections_total",
			Help:      "SQL validator rejections by violation kind.",
		}, []string{"kind"}),
		CompletionCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_calls_total",
			Help:      "Language-model calls by purpose and status.",
		}, []string{"purpose", "status"}),
		ResultCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_hits_total",
			Help:      "Query executions served from the result cache.",
		}),
		QueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_ms",
			Help:      "Employee query execution time in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		ActiveSessionLocks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_session_locks",
			Help:      "Sessions with a tracked serialization lock.",
		}),
		CompressionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compression_runs_total",
			Help:      "Context compression attempts by result.",
		}, []string{"result"}),
		stageWindow: newStageWindow(256),
	}
}

// ObserveStage records a pipeline stage latency in the rolling perf window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageWindow.Observe(stage, float64(d.Microseconds())/1000.0)
}

// ObserveIndicator counts a named event in the rolling perf window.
func (m *Metrics) ObserveIndicator(name string) {
	if m == nil {
		return
	}
	m.stageWindow.ObserveIndicator(name)
}

// SnapshotStages returns the rolling latency window for the perf endpoint.
func (m *Metrics) SnapshotStages() StageSnapshot {
	if m == nil {
		return StageSnapshot{}
	}
	return m.stageWindow.Snapshot()
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
