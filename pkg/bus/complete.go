package bus

import (
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/metrics"
)

// onEventDone runs the per-event completion bookkeeping: done/success
// firing, then walking the cause chain decrementing effects and firing
// complete exactly once per requesting event.
func (m *Manager) onEventDone(ev *event.Event) {
	if ev.WaitingHandlers > 0 {
		return
	}

	if ev.AlertDone {
		m.Fire(event.Done(ev, ev.Value.Value), ev.Channels...)
	}

	if !ev.Value.Errors && ev.Success {
		channels := ev.SuccessChannels
		if len(channels) == 0 {
			channels = ev.Channels
		}
		m.Fire(event.Success(ev, ev.Value.Value), channels...)
	}

	ev.Value.Done = true
	m.values.Forget(ev)

	cur := ev
	for cur.Cause != nil {
		cur.Effects--
		if cur.Effects > 0 {
			return
		}
		cur.Value.Done = true
		m.values.Forget(cur)

		if cur.Complete {
			channels := cur.CompleteChannels
			if len(channels) == 0 {
				channels = cur.Channels
			}
			metrics.CompleteEventsTotal.Inc()
			m.Fire(event.Complete(cur, cur.Value.Value), channels...)
		}

		cause := cur.Cause
		cur.Cause = nil
		cur.Effects = 0
		cur = cause
	}
}

// ValueOf returns the live Value for ev, if the dispatcher still has a
// reference to it. The weak registry never pins an event's Value past
// what the caller holding ev itself keeps alive.
func (m *Manager) ValueOf(ev *event.Event) (*event.Value, bool) {
	return m.values.Lookup(ev)
}
