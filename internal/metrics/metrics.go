// Package metrics exposes the proxy's Prometheus collectors, grounded
// in minis/50-mini-service-all-features's middleware/metrics.go shape
// (a struct of pre-registered collectors handed to call sites) and
// cmd/service/main.go's "/metrics" mount via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the proxy records against.
type Metrics struct {
	SlotsCovered       prometheus.Gauge
	UpdateOutcomeTotal *prometheus.CounterVec
	ParkedRequests     prometheus.Gauge
	FetchDuration      prometheus.Histogram
}

// New creates and registers the proxy's collectors against reg. Passing
// a fresh prometheus.NewRegistry() keeps tests isolated from the global
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SlotsCovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clusterproxy",
			Subsystem: "topology",
			Name:      "slots_covered",
			Help:      "Number of hash slots currently mapped to a non-replica node.",
		}),
		UpdateOutcomeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clusterproxy",
			Subsystem: "reconfigurator",
			Name:      "update_outcome_total",
			Help:      "Count of Reconfigurator.Update outcomes, labeled by signal.",
		}, []string{"signal"}),
		ParkedRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clusterproxy",
			Subsystem: "reconfigurator",
			Name:      "parked_requests",
			Help:      "Number of requests currently parked for replay after a reconfiguration.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clusterproxy",
			Subsystem: "discoverer",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of Discoverer.Fetch calls against the seed and its friends.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.SlotsCovered, m.UpdateOutcomeTotal, m.ParkedRequests, m.FetchDuration)
	return m
}

// ObserveUpdateOutcome records one Reconfigurator.Update call's result.
func (m *Metrics) ObserveUpdateOutcome(signal string) {
	m.UpdateOutcomeTotal.WithLabelValues(signal).Inc()
}
