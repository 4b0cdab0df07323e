package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes used as the result label of plugctl_plugin_loads_total.
const (
	LoadOK        = "ok"
	LoadFailed    = "failed"
	LoadDuplicate = "duplicate"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plugctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plugctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	pluginLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plugctl",
			Subsystem: "plugin",
			Name:      "loads_total",
			Help:      "Plugin load attempts by result.",
		},
		[]string{"result"},
	)
	pluginLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "plugctl",
			Subsystem: "plugin",
			Name:      "loaded",
			Help:      "Plugins currently registered.",
		},
	)
	pluginRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plugctl",
			Subsystem: "plugin",
			Name:      "runs_total",
			Help:      "Plugin run calls by status.",
		},
		[]string{"plugin", "status"},
	)
	pluginRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "plugctl",
			Subsystem: "plugin",
			Name:      "run_duration_seconds",
			Help:      "Wall time of plugin run calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"plugin"},
	)
	pluginPushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plugctl",
			Subsystem: "plugin",
			Name:      "param_pushes_total",
			Help:      "Parameter pushes before run by result.",
		},
		[]string{"plugin", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			pluginLoads,
			pluginLoaded,
			pluginRuns,
			pluginRunDuration,
			pluginPushes,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordLoad(result string) {
	RegisterMetrics()
	pluginLoads.WithLabelValues(result).Inc()
}

func SetLoaded(n int) {
	RegisterMetrics()
	pluginLoaded.Set(float64(n))
}

// RecordRun counts one run call. Negative statuses are labelled "error".
func RecordRun(plugin string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := "ok"
	if status < 0 {
		statusLabel = "error"
	}
	pluginRuns.WithLabelValues(plugin, statusLabel).Inc()
	pluginRunDuration.WithLabelValues(plugin).Observe(duration.Seconds())
}

func RecordPush(plugin string, ok bool) {
	RegisterMetrics()
	result := "ok"
	if !ok {
		result = "failed"
	}
	pluginPushes.WithLabelValues(plugin, result).Inc()
}
