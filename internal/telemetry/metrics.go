package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rollcall",
			Name:      "store_duration_seconds",
			Help:      "Latency of membership table operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13),
		},
		[]string{"op"},
	)

	StoreRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "store_retries_total",
			Help:      "Retries of table operations after the store was unavailable.",
		},
		[]string{"op"},
	)

	Conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "version_conflicts_total",
			Help:      "Conditional writes rejected because of a version mismatch.",
		},
		[]string{"op"},
	)

	Heartbeats = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "heartbeats_total",
			Help:      "Heartbeats written by this silo, by result.",
		},
		[]string{"result"},
	)

	Suspects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "suspects_total",
			Help:      "Rows found suspect by the failure detector, by reason.",
		},
		[]string{"reason"},
	)

	MarkedDead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "marked_dead_total",
			Help:      "Peers declared dead by this silo.",
		},
	)

	Evictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rollcall",
			Name:      "evictions_total",
			Help:      "Times this silo found itself evicted from the cluster.",
		},
	)

	Members = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "rollcall",
			Name:      "members",
			Help:      "Rows in the last observed membership view, by status.",
		},
		[]string{"status"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "rollcall",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(
		StoreDuration,
		StoreRetries,
		Conflicts,
		Heartbeats,
		Suspects,
		MarkedDead,
		Evictions,
		Members,
		uptime,
	)
}

// MetricsHandler exposes the registry. Mount it with r.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveStore records the latency of a table operation started at start.
func ObserveStore(op string, start time.Time) {
	StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
