package event

import (
	"sync"
	"time"
)

// IsDerived reports whether name looks like one produced by Done/Success/
// Complete/Failure for the given origin (used by tests and diagnostics).
func IsDerived(origin *Event, topic, name string) bool {
	return derivedName(origin, topic) == name
}

// Done builds the internal "<name>_done" event used only by Wait/Call to
// detect that the awaited event has been observed by the dispatcher.
// Application code should use Success instead.
func Done(origin *Event, value any) *Event {
	return &Event{
		Name:    derivedName(origin, "done"),
		Literal: true,
		Args:    []any{origin, value},
		Kwargs:  map[string]any{},
	}
}

// Success builds the "<name>_success" event fired after all of origin's
// direct handlers ran without error, when origin.Success is set.
func Success(origin *Event, value any) *Event {
	return &Event{
		Name:    derivedName(origin, "success"),
		Literal: true,
		Args:    []any{origin, value},
		Kwargs:  map[string]any{},
	}
}

// Complete builds the "<name>_complete" event fired once origin and every
// event it transitively caused have finished, when origin.Complete is set.
func Complete(origin *Event, value any) *Event {
	return &Event{
		Name:    derivedName(origin, "complete"),
		Literal: true,
		Args:    []any{origin, value},
		Kwargs:  map[string]any{},
	}
}

// Failure builds the "<name>_failure" event fired when any of origin's
// handlers raised, when origin.Failure is set.
func Failure(origin *Event, err any) *Event {
	return &Event{
		Name:    derivedName(origin, "failure"),
		Literal: true,
		Args:    []any{origin, err},
		Kwargs:  map[string]any{},
	}
}

// ErrorInfo is the (type, value, traceback) triple captured when a
// handler raises.
type ErrorInfo struct {
	Type      string
	Value     error
	Traceback string
}

// NewError builds the "error" event always fired when a handler invocation
// fails (regardless of whether the owning event requested Failure).
func NewError(info ErrorInfo, handler any, owner *Event) *Event {
	ev := New("Error", info.Type, info.Value, info.Traceback, handler, owner)
	return ev
}

// NewStarted builds the "started" event fired once a manager begins running.
func NewStarted(component any) *Event {
	return New("Started", component)
}

// NewStopped builds the "stopped" event fired once a manager stops running.
func NewStopped(component any) *Event {
	return New("Stopped", component)
}

// NewSignal builds the "signal" event fired when the main thread traps an
// interrupt or termination signal.
func NewSignal(signo int, stack string) *Event {
	return New("Signal", signo, stack)
}

// NewRegistered builds the "registered" event fired when component is
// spliced under manager (unless manager is component itself).
func NewRegistered(component, manager any) *Event {
	return New("Registered", component, manager)
}

// NewUnregistered builds the "unregistered" event fired once component has
// been spliced out of manager's tree.
func NewUnregistered(component, manager any) *Event {
	return New("Unregistered", component, manager)
}

// GenerateEventsData is the dispatcher's I/O poll point: its TimeLeft
// budget controls how long a generate_events handler may block, and any
// foreign-goroutine Fire reduces it to zero to wake the dispatcher early.
// It is attached to an *Event via the event's GenerateEvents field rather
// than modeled as a distinct Go type, keeping every event a single tagged
// record discriminated by Name.
type GenerateEventsData struct {
	mu       sync.Mutex
	Lock     *sync.Mutex
	timeLeft time.Duration
	wake     chan struct{}
	woken    bool
}

// NewGenerateEvents builds a generate_events event with the given initial
// time budget, guarded by lock (the root manager's mutex).
func NewGenerateEvents(lock *sync.Mutex, timeLeft time.Duration) *Event {
	return &Event{
		Name:   "generate_events",
		Args:   []any{},
		Kwargs: map[string]any{},
		GenerateEvents: &GenerateEventsData{
			Lock:     lock,
			timeLeft: timeLeft,
			wake:     make(chan struct{}),
		},
	}
}

// TimeLeft returns the remaining time budget for this tick's I/O poll.
func (g *GenerateEventsData) TimeLeft() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timeLeft
}

// Wake returns a channel closed the moment a foreign-goroutine enqueue
// cuts this poll point's budget short, letting a blocked generate_events
// handler select on it instead of sleeping the full original duration.
func (g *GenerateEventsData) Wake() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.wake
}

// ReduceTimeLeft shrinks the remaining budget to at most d, never
// increasing it, and wakes anything selecting on Wake once it reaches zero.
func (g *GenerateEventsData) ReduceTimeLeft(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if d < g.timeLeft {
		g.timeLeft = d
	}
	if g.timeLeft <= 0 && !g.woken {
		g.woken = true
		close(g.wake)
	}
}

// SetTimeLeft assigns the remaining budget outright, used only by the
// dispatcher's own pre-dispatch special case for generate_events (never
// by foreign goroutines, which must only ever shrink it via ReduceTimeLeft).
func (g *GenerateEventsData) SetTimeLeft(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timeLeft = d
	if g.timeLeft <= 0 && !g.woken {
		g.woken = true
		close(g.wake)
	}
}
