package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for filter sessions. Sessions
// share one Metrics value when several passes run in the same process.
type Metrics struct {
	ObjectsVisited prometheus.Counter
	ObjectsMatched prometheus.Counter
	LookupDuration prometheus.Histogram
}

// NewMetrics creates and registers the filter collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ObjectsVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terravc_filter_objects_visited_total",
			Help: "Objects delivered to the filter by the walker.",
		}),
		ObjectsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terravc_filter_objects_matched_total",
			Help: "Feature blobs that matched the query rectangle.",
		}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "terravc_filter_lookup_duration_seconds",
			Help:    "Duration of per-object spatial index lookups.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
	reg.MustRegister(m.ObjectsVisited, m.ObjectsMatched, m.LookupDuration)
	return m
}
