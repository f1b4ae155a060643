// Package metrics exposes Prometheus instrumentation for the event bus:
// queue depth, dispatch throughput and latency, handler failures, and the
// cooperative task scheduler's outstanding-task count.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// QueueDepth reports the number of events currently sitting in the
	// root manager's priority queue, set after every Fire and at the end
	// of each flush.
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_queue_depth",
			Help: "Number of events pending in the root event queue",
		},
	)

	// EventsFiredTotal counts every call to Manager.Fire, labeled by event name.
	EventsFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_fired_total",
			Help: "Total number of events fired, by event name",
		},
		[]string{"event"},
	)

	// EventsDispatchedTotal counts events popped off the queue and dispatched.
	EventsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_dispatched_total",
			Help: "Total number of events dispatched, by event name",
		},
		[]string{"event"},
	)

	// DispatchDuration measures the wall time spent invoking all handlers
	// for a single event.
	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_dispatch_duration_seconds",
			Help:    "Time spent dispatching a single event to its handlers",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HandlerErrorsTotal counts handler invocations that raised, by event name.
	HandlerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_handler_errors_total",
			Help: "Total number of handler invocations that failed, by event name",
		},
		[]string{"event"},
	)

	// UnhandledEventsTotal counts events for which zero handlers ran.
	UnhandledEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_unhandled_events_total",
			Help: "Total number of events for which no handler ran",
		},
	)

	// TasksActive reports the number of suspended cooperative tasks
	// (wait/call coroutines) currently registered with the scheduler.
	TasksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_tasks_active",
			Help: "Number of suspended wait/call tasks registered with the scheduler",
		},
	)

	// CacheRebuildsTotal counts handler-resolution cache rebuilds.
	CacheRebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_cache_rebuilds_total",
			Help: "Total number of times the handler-resolution cache was rebuilt",
		},
	)

	// CompleteEventsTotal counts fired `complete` derived events.
	CompleteEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_complete_events_total",
			Help: "Total number of complete() derived events fired",
		},
	)
)

func init() {
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(EventsFiredTotal)
	prometheus.MustRegister(EventsDispatchedTotal)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(HandlerErrorsTotal)
	prometheus.MustRegister(UnhandledEventsTotal)
	prometheus.MustRegister(TasksActive)
	prometheus.MustRegister(CacheRebuildsTotal)
	prometheus.MustRegister(CompleteEventsTotal)
}

// Handler returns the HTTP handler that serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an elapsed duration and reports it to a histogram on
// ObserveDuration.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration reports the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
