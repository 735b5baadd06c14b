// Package metrics exposes Prometheus counters and gauges for the pevent
// package's operations, grounded on the teacher's use of
// github.com/prometheus/client_golang elsewhere in its stack for runtime
// observability. Nothing here is on the fast path guarded by an Event's
// own mutex for longer than an already-incremented counter add; none of
// it participates in wait correctness.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pevent",
		Name:      "events_created_total",
		Help:      "Events created via New.",
	})

	EventsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pevent",
		Name:      "events_live",
		Help:      "Events created but not yet destroyed.",
	})

	SetCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pevent",
		Name:      "set_calls_total",
		Help:      "Calls to Event.Set.",
	})

	ResetCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pevent",
		Name:      "reset_calls_total",
		Help:      "Calls to Event.Reset.",
	})

	PulseCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pevent",
		Name:      "pulse_calls_total",
		Help:      "Calls to Event.Pulse.",
	})

	AutoResetConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pevent",
		Name:      "auto_reset_consumed_total",
		Help:      "Auto-reset events drained by a successful wait.",
	})

	WaitTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pevent",
		Name:      "wait_timeouts_total",
		Help:      "Waits (single or multi-event) that returned ErrTimeout.",
	})

	MultiWaitsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pevent",
		Name:      "multi_waits_live",
		Help:      "WaitForMultipleEvents calls currently registered and blocked.",
	})

	ClaimCascadeRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pevent",
		Name:      "claim_cascade_retries_total",
		Help:      "Times the wait-all atomic-claim cascade had to retry due to lock contention or a stolen claim.",
	})
)

func init() {
	prometheus.MustRegister(
		EventsCreated,
		EventsLive,
		SetCalls,
		ResetCalls,
		PulseCalls,
		AutoResetConsumed,
		WaitTimeouts,
		MultiWaitsLive,
		ClaimCascadeRetries,
	)
}
