package bus

import (
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/metrics"
)

// Fire enqueues ev for delivery on channels (or, if channels is empty,
// on ev.Channels if already set, else the manager's own channel) and
// returns its Value immediately. Fire never blocks on handler
// invocation. If the caller is the dispatcher goroutine and the
// currently-handling event has causal tracking enabled, ev inherits its
// cause so its completion counts toward that ancestor's complete event.
func (m *Manager) Fire(ev *event.Event, channels ...string) *event.Value {
	resolved := channels
	if len(resolved) == 0 {
		if len(ev.Channels) > 0 {
			resolved = ev.Channels
		} else {
			resolved = []string{m.Component.Channel}
		}
	}
	ev.Channels = resolved

	value := event.NewValue()
	ev.Value = value
	m.values.Track(ev, value)

	metrics.EventsFiredTotal.WithLabelValues(ev.Name).Inc()

	onDispatcher := m.onDispatcherGoroutine()

	m.mu.Lock()
	seq := m.sequence
	m.sequence++
	m.queue.push(ev, resolved, 0, seq)

	if onDispatcher && ev.Name != "signal" {
		if cause := m.currentlyHandling; cause != nil && cause.Cause != nil {
			ev.Cause = cause
			ev.Effects = 1
			cause.Effects++
		}
	} else if !onDispatcher {
		if cur := m.currentlyHandling; cur != nil && cur.GenerateEvents != nil {
			cur.GenerateEvents.ReduceTimeLeft(0)
		}
	}
	m.mu.Unlock()

	metrics.QueueDepth.Set(float64(m.queueLen()))

	return value
}

func (m *Manager) queueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}
