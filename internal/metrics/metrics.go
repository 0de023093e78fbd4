package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mediaref"

// Metrics collects per-stage timings and event counts for one run. The zero
// value returned by NoMetrics records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	events    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each resolution stage.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"stage"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Resolution events by name.",
	}, []string{"event"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(durations, events)

	return &Metrics{registry: registry, durations: durations, events: events}
}

func NoMetrics() *Metrics {
	return &Metrics{}
}

// Record starts timing stage; call the returned function to stop.
func (x *Metrics) Record(stage string) func() error {
	if x == nil || x.registry == nil {
		return func() error { return nil }
	}

	start := time.Now()
	return func() error {
		x.durations.WithLabelValues(stage).Observe(time.Since(start).Seconds())
		return nil
	}
}

func (x *Metrics) Increment(event string) error {
	if x != nil && x.registry != nil {
		x.events.WithLabelValues(event).Inc()
	}

	return nil
}

func (x *Metrics) Gatherer() prometheus.Gatherer {
	if x == nil || x.registry == nil {
		return prometheus.NewRegistry()
	}
	return x.registry
}

// WriteTo dumps every metric to path in the Prometheus text format, for
// pickup by a node exporter textfile collector.
func (x *Metrics) WriteTo(path string) error {
	return prometheus.WriteToTextfile(path, x.Gatherer())
}
