package task

import "github.com/cuemby/relay/pkg/event"

// waitCoroutine implements Wait: its first Step installs the match
// handlers (one per awaited channel), the done handler, and the tick
// handler on the host, then yields the rendezvous TaskState; its second
// Step (driven once the scheduler observes state.Flag) tears those
// handlers down and yields the resolved CallValue.
type waitCoroutine struct {
	host     Host
	name     string
	channels []string
	timeout  int

	state *TaskState

	matchHandlers []*handlerRef
	doneHandler   *handlerRef
	tickHandler   *handlerRef

	started bool
}

// Wait builds a Coroutine that suspends until an event named name fires
// on one of channels (or, if channels is empty, on any channel), or
// until timeout generate_events ticks elapse (negative = infinite).
func Wait(host Host, name string, channels []string, timeout int) Coroutine {
	return &waitCoroutine{host: host, name: name, channels: channels, timeout: timeout}
}

func (w *waitCoroutine) Step(sent any) (Step, bool, error) {
	if !w.started {
		w.started = true
		w.state = &TaskState{Timeout: w.timeout}
		w.install()
		return Step{Kind: KindState, State: w.state}, false, nil
	}

	w.teardown()

	var value any
	if w.state.Event != nil && w.state.Event.Value != nil {
		value = w.state.Event.Value.Value
	}
	return Step{Kind: KindCall, Call: &CallValue{Value: value}}, true, nil
}

// handlerRef is the minimal handle Wait needs back from the handler
// package without importing it at the exported API surface; defined in
// handlers.go.

func (w *waitCoroutine) install() {
	w.matchHandlers = newMatchHandlers(w, w.name, w.channels)
	for _, ref := range w.matchHandlers {
		w.host.AddHandler(ref.h)
	}

	w.doneHandler = newDoneHandler(w, w.name)
	w.host.AddHandler(w.doneHandler.h)

	if w.timeout >= 0 {
		w.tickHandler = newTickHandler(w)
		w.host.AddHandler(w.tickHandler.h)
	}
}

func (w *waitCoroutine) teardown() {
	for _, ref := range w.matchHandlers {
		w.host.RemoveHandler(ref.h)
	}
	w.matchHandlers = nil
	if w.doneHandler != nil {
		w.host.RemoveHandler(w.doneHandler.h)
	}
	if w.tickHandler != nil {
		w.host.RemoveHandler(w.tickHandler.h)
	}
}

// onMatch fires once the awaited event is observed: records it and
// removes every match handler so it only ever fires once, regardless of
// which channel the event landed on.
func (w *waitCoroutine) onMatch(ev *event.Event) {
	w.state.setRun(ev)
	for _, ref := range w.matchHandlers {
		w.host.RemoveHandler(ref.h)
	}
	w.matchHandlers = nil
}

// onDone fires on "<name>_done"; re-queues this task once the observed
// event is the one this coroutine is waiting on.
func (w *waitCoroutine) onDone(source *event.Event) {
	w.state.mu.Lock()
	target := w.state.Event
	w.state.mu.Unlock()
	if target == nil || source != target {
		return
	}
	w.state.setFlag()
	w.host.Requeue(w.state)
}

// onTick fires on every generate_events while a finite timeout is set;
// re-queues this task once the countdown expires.
func (w *waitCoroutine) onTick() {
	if w.state.decrementTimeout() {
		w.host.Requeue(w.state)
	}
}

// callCoroutine implements Call: fire the event, then behave exactly
// like waitCoroutine on its name/channels.
type callCoroutine struct {
	host    Host
	ev      *event.Event
	channels []string
	timeout int
	inner   *waitCoroutine
	fired   bool
}

// Call builds a Coroutine that fires ev on channels, then suspends until
// its "done" is observed (see Wait), yielding ev's resolved Value.
func Call(host Host, ev *event.Event, channels []string, timeout int) Coroutine {
	return &callCoroutine{host: host, ev: ev, channels: channels, timeout: timeout}
}

func (c *callCoroutine) Step(sent any) (Step, bool, error) {
	if !c.fired {
		c.fired = true
		c.host.Fire(c.ev, c.channels...)
		c.inner = &waitCoroutine{host: c.host, name: c.ev.Name, channels: c.ev.Channels, timeout: c.timeout}
	}
	return c.inner.Step(sent)
}
