package bus

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/metrics"
	"github.com/cuemby/relay/pkg/task"
)

// ErrTerminate is the panic value a handler raises to request immediate
// manager shutdown, playing the role SystemExit/KeyboardInterrupt plays
// when they cross a handler boundary.
var ErrTerminate = fmt.Errorf("bus: terminate")

// flush snapshots the current queue depth into a batch counter and pops
// exactly that many entries, so events fired by handlers during this
// round are deferred to the next flush. It records the calling goroutine
// as the dispatcher goroutine on every call, regardless of whether Run
// was ever entered, so a manager driven solely by direct Tick calls still
// gets correct cause-inheritance and foreign-wake behavior out of Fire.
func (m *Manager) flush() (terminate bool) {
	m.mu.Lock()
	m.dispatcherGoroutine = goroutineID()
	m.dispatcherGoroutineSet = true
	batch := m.queue.Len()
	entries := m.queue.popAll(batch)
	m.mu.Unlock()

	for _, entry := range entries {
		if m.dispatch(entry) {
			return true
		}
	}
	metrics.QueueDepth.Set(float64(m.queueLen()))
	return false
}

// dispatch runs the nine-step delivery algorithm for one queue entry.
func (m *Manager) dispatch(entry *queueEntry) (terminate bool) {
	ev := entry.event

	if ev.Complete && ev.Cause == nil {
		ev.Cause = ev
		ev.Effects = 1
	}

	handlers := m.resolve(ev.Name, entry.channels)
	if ev.Name == "generate_events" {
		m.prepareGenerateEvents(ev)
		handlers = m.withGenerateEventsFallback(ev, handlers)
	} else if ev.Name == "error" && len(handlers) == 0 {
		handlers = []*handler.Handler{fallbackErrorHandler()}
	}

	m.mu.Lock()
	m.currentlyHandling = ev
	m.mu.Unlock()

	timer := metrics.NewTimer()

	// filtered, once set, records that a truthy filter result is blocking
	// dispatch; filteredPriority is that handler's priority. Handlers are resolved in
	// (priority desc, filter desc) order, so a strictly-lower-priority
	// handler is the first one we see whose priority drops below it;
	// same-priority handlers still queued behind the filter handler run.
	var filtered bool
	var filteredPriority int

	for _, h := range handlers {
		if filtered && h.Priority < filteredPriority {
			break
		}

		ev.Handler = h

		args := ev.Args
		if h.WantsEvent {
			args = append([]any{ev}, ev.Args...)
		}

		result, err := m.invoke(h, args, ev.Kwargs)
		if err != nil {
			if err == ErrTerminate {
				terminate = true
				continue
			}
			m.handleFailure(ev, h, err)
			continue
		}

		if coro, ok := result.(task.Coroutine); ok {
			ev.Value.Promise = true
			ev.WaitingHandlers++
			m.registerTask(coro, ev, nil)
		} else {
			ev.Value.Set(result)
			if h.Filter && truthy(result) {
				filtered = true
				filteredPriority = h.Priority
			}
		}

		if ev.Stopped {
			break
		}
	}

	m.mu.Lock()
	m.currentlyHandling = nil
	m.mu.Unlock()

	timer.ObserveDuration(metrics.DispatchDuration)
	metrics.EventsDispatchedTotal.WithLabelValues(ev.Name).Inc()

	if ev.Handler == nil && ev.Name != "generate_events" {
		metrics.UnhandledEventsTotal.Inc()
		log.WithEvent(ev.Name).Warn().Msg("event had no handlers")
	}

	m.onEventDone(ev)

	return terminate
}

// invoke calls h.Fn, converting a recovered panic into an error unless
// the panic value is ErrTerminate, which is returned as the error so the
// tick loop stops after this event's remaining bookkeeping completes.
func (m *Manager) invoke(h *handler.Handler, args []any, kwargs map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == ErrTerminate {
				err = ErrTerminate
				return
			}
			err = fmt.Errorf("handler %s panicked: %v\n%s", h, r, debug.Stack())
		}
	}()
	return h.Fn(args, kwargs)
}

func (m *Manager) handleFailure(ev *event.Event, h *handler.Handler, err error) {
	info := event.ErrorInfo{
		Type:      fmt.Sprintf("%T", err),
		Value:     err,
		Traceback: err.Error(),
	}
	ev.Value.Errors = true
	ev.Value.Set(info)

	metrics.HandlerErrorsTotal.WithLabelValues(ev.Name).Inc()
	log.WithHandler(h.Label).Error().Err(err).Str("event", ev.Name).Msg("handler failed")

	if ev.Failure {
		m.Fire(event.Failure(ev, err))
	}
	m.Fire(event.NewError(info, h, ev))
}

func fallbackErrorHandler() *handler.Handler {
	return handler.New(func(args []any, kwargs map[string]any) (any, error) {
		log.Error(fmt.Sprintf("unhandled error event: %v", args))
		return nil, nil
	}, []string{"error"}, handler.WithLabel("fallback:error"))
}

// prepareGenerateEvents applies the dispatcher's pre-dispatch special
// case for this poll point: if the queue is non-empty or the manager is
// no longer running, the budget collapses to zero; otherwise, if any task
// is suspended awaiting a wakeup, the budget is set to
// m.GenerateEventsTimeout so tick-denominated timeouts keep advancing at
// a steady cadence. Entries already popped into the current flush batch
// are not counted as pending work, so a batch entry queued behind this
// event does not shorten the budget.
func (m *Manager) prepareGenerateEvents(ev *event.Event) {
	if ev.GenerateEvents == nil {
		return
	}
	m.mu.Lock()
	moreWork := m.queue.Len() > 0 || !m.running
	hasTasks := len(m.pending) > 0 || m.activeTasks > 0
	m.mu.Unlock()

	switch {
	case moreWork:
		ev.GenerateEvents.ReduceTimeLeft(0)
	case hasTasks:
		ev.GenerateEvents.SetTimeLeft(m.GenerateEventsTimeout)
	}
}

// withGenerateEventsFallback appends a fallback generate_events handler
// that blocks for the event's remaining time budget when no domain
// handler claimed this tick's poll point, waking early if a foreign
// goroutine's enqueue cuts that budget short.
func (m *Manager) withGenerateEventsFallback(ev *event.Event, handlers []*handler.Handler) []*handler.Handler {
	if len(handlers) > 0 {
		return handlers
	}
	return []*handler.Handler{handler.New(func(args []any, kwargs map[string]any) (any, error) {
		if ev.GenerateEvents != nil {
			d := ev.GenerateEvents.TimeLeft()
			if d > 0 {
				select {
				case <-time.After(d):
				case <-ev.GenerateEvents.Wake():
				}
			}
		}
		return nil, nil
	}, []string{"generate_events"}, handler.WithLabel("fallback:generate_events"))}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case error:
		return t != nil
	default:
		return true
	}
}
