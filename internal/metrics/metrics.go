// Package metrics exposes the scheduler's Prometheus counters and
// gauges through a dedicated registry, kept separate from the default
// global one so a harness can run several scheduler instances side by
// side without metric name collisions.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds one scheduler instance's metric set.
type Registry struct {
	reg *prometheus.Registry

	Allocations *prometheus.CounterVec
	HARQAcks    *prometheus.CounterVec
	GridOccupancy *prometheus.GaugeVec
	TTILatency  prometheus.Histogram
}

// New builds and registers a fresh metric set with ns (e.g. the
// carrier's cell id) as the metric subsystem, so every metric name
// reads macsched_<ns>_... and multiple carriers are distinguished by
// metric name rather than by separate processes.
func New(ns string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		Allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "macsched",
			Subsystem: ns,
			Name:      "allocations_total",
			Help:      "Admission attempts by channel and result.",
		}, []string{"channel", "result"}),
		HARQAcks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "macsched",
			Subsystem: ns,
			Name:      "harq_feedback_total",
			Help:      "HARQ feedback events by direction and outcome.",
		}, []string{"direction", "outcome"}),
		GridOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "macsched",
			Subsystem: ns,
			Name:      "grid_occupancy_ratio",
			Help:      "Fraction of PRBs reserved in the most recently generated slot.",
		}, []string{"channel"}),
		TTILatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "macsched",
			Subsystem: ns,
			Name:      "tti_processing_seconds",
			Help:      "Wall-clock time spent servicing one new_tti tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}

	reg.MustRegister(r.Allocations, r.HARQAcks, r.GridOccupancy, r.TTILatency)
	return r
}

// Gatherer exposes the underlying registry for an HTTP /metrics
// handler to scrape.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveAlloc records one admission attempt's outcome.
func (r *Registry) ObserveAlloc(channel, result string) {
	r.Allocations.WithLabelValues(channel, result).Inc()
}

// ObserveHARQ records one HARQ feedback event.
func (r *Registry) ObserveHARQ(direction string, ok bool) {
	outcome := "nack"
	if ok {
		outcome = "ack"
	}
	r.HARQAcks.WithLabelValues(direction, outcome).Inc()
}

// SetOccupancy reports the current PRB occupancy ratio for a channel.
func (r *Registry) SetOccupancy(channel string, ratio float64) {
	r.GridOccupancy.WithLabelValues(channel).Set(ratio)
}
