// Package metrics defines the prometheus counters and histograms emitted by
// the dispatcher and fan-out engine. Exposition (an HTTP /metrics handler)
// is out of scope — this module runs as short-lived event invocations, not
// a long-running server — so these are registry-only instruments a host
// process can scrape via its own exposition path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram the core tasking pipeline emits.
type Metrics struct {
	TimedEventsMatched   prometheus.Counter
	StoreEventsHandled   prometheus.Counter
	StoreEventsDropped   prometheus.Counter
	TemplatesListed      prometheus.Counter
	FanOutRequestsSent   prometheus.Counter
	FanOutInvocations    prometheus.Counter
	InvocationsEnqueued  prometheus.Counter
	SoftStops            prometheus.Counter
	HardErrors           *prometheus.CounterVec
	BatchSize            prometheus.Histogram
	ResolvedTargetCount  prometheus.Histogram
}

// New registers and returns a fresh Metrics instance. Intended to be called
// once per process against the default registry, using the usual
// promauto.New* construction idiom.
func New() *Metrics {
	return &Metrics{
		TimedEventsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_timed_events_matched_total",
			Help: "Total number of enabled workers matched against a timed dispatch event.",
		}),
		StoreEventsHandled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_store_events_handled_total",
			Help: "Total number of store-change events routed to a worker.",
		}),
		StoreEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_store_events_dropped_total",
			Help: "Total number of store-change events dropped (non-yaml key or no owning worker).",
		}),
		TemplatesListed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_templates_listed_total",
			Help: "Total number of templates discovered across all dispatch cycles.",
		}),
		FanOutRequestsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_fanout_requests_sent_total",
			Help: "Total number of fan-out queue messages enqueued by the dispatcher.",
		}),
		FanOutInvocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_fanout_invocations_total",
			Help: "Total number of fan-out engine invocations processed.",
		}),
		InvocationsEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_invocations_enqueued_total",
			Help: "Total number of worker invocation messages enqueued by the fan-out engine.",
		}),
		SoftStops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "starbase_fanout_soft_stops_total",
			Help: "Total number of fan-out invocations that stopped early because no targets resolved.",
		}),
		HardErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "starbase_hard_errors_total",
			Help: "Total number of hard errors raised by the tasking pipeline, by error kind.",
		}, []string{"kind"}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "starbase_batch_size",
			Help:    "Size of each enqueue batch.",
			Buckets: []float64{1, 2, 5, 10},
		}),
		ResolvedTargetCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "starbase_resolved_target_count",
			Help:    "Number of targets (accounts, or account-region pairs) resolved per fan-out invocation.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// Nop returns a Metrics instance backed by a private registry, safe for
// repeated construction in tests without colliding with the default
// registry's already-registered collector names.
func Nop() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		TimedEventsMatched:  factory.NewCounter(prometheus.CounterOpts{Name: "timed_events_matched_total"}),
		StoreEventsHandled:  factory.NewCounter(prometheus.CounterOpts{Name: "store_events_handled_total"}),
		StoreEventsDropped:  factory.NewCounter(prometheus.CounterOpts{Name: "store_events_dropped_total"}),
		TemplatesListed:     factory.NewCounter(prometheus.CounterOpts{Name: "templates_listed_total"}),
		FanOutRequestsSent:  factory.NewCounter(prometheus.CounterOpts{Name: "fanout_requests_sent_total"}),
		FanOutInvocations:   factory.NewCounter(prometheus.CounterOpts{Name: "fanout_invocations_total"}),
		InvocationsEnqueued: factory.NewCounter(prometheus.CounterOpts{Name: "invocations_enqueued_total"}),
		SoftStops:           factory.NewCounter(prometheus.CounterOpts{Name: "fanout_soft_stops_total"}),
		HardErrors:          factory.NewCounterVec(prometheus.CounterOpts{Name: "hard_errors_total"}, []string{"kind"}),
		BatchSize:           factory.NewHistogram(prometheus.HistogramOpts{Name: "batch_size", Buckets: []float64{1, 2, 5, 10}}),
		ResolvedTargetCount: factory.NewHistogram(prometheus.HistogramOpts{Name: "resolved_target_count", Buckets: prometheus.ExponentialBuckets(1, 2, 12)}),
	}
}
