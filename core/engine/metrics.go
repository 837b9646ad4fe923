package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ticksProcessed prometheus.Counter
	ticksSkipped   prometheus.Counter
	actionsEmitted *prometheus.CounterVec
	campusLoad     prometheus.Gauge
	tickDuration   prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, *prometheus.CounterVec, prometheus.Gauge, prometheus.Histogram) {
	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_ticks_total",
		Help: "Number of completed evaluation cycles",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_ticks_skipped_total",
		Help: "Number of cycles skipped because the previous one overran",
	})
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_actions_total",
		Help: "Autonomous actions emitted",
	}, []string{"action_type"})
	load := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "campus_load_kw",
		Help: "Total campus load after the last tick",
	})
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_tick_duration_seconds",
		Help:    "Wall time of one evaluation cycle",
		Buckets: prometheus.DefBuckets,
	})
	return processed, skipped, actions, load, dur
}

func init() {
	ticksProcessed, ticksSkipped, actionsEmitted, campusLoad, tickDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(ticksProcessed, ticksSkipped, actionsEmitted, campusLoad, tickDuration)
}

// ResetMetrics reinitializes collectors for testing purposes and registers
// them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	ticksProcessed, ticksSkipped, actionsEmitted, campusLoad, tickDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
