// Package task implements the cooperative scheduler primitives a handler
// uses to suspend until another event completes, without blocking the
// dispatcher goroutine: Wait and Call build a Coroutine; pkg/bus steps it
// once per tick until it terminates.
//
// This is an explicit state machine rather than a generator-based
// trampoline: Coroutine.Step returns a discriminated Step result
// (task-state rendezvous, a nested coroutine to run first, or a final
// CallValue) instead of relying on yield semantics Go does not have.
package task

import (
	"sync"

	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
)

// Kind discriminates the payload carried by a Step result.
type Kind int

const (
	// KindState is the first yield of a Wait/Call coroutine: the shared
	// rendezvous record the installed handlers populate.
	KindState Kind = iota
	// KindNested means the coroutine wants another Coroutine driven to
	// completion before it is stepped again.
	KindNested
	// KindCall is the coroutine's final yield: the resolved value.
	KindCall
)

// Step is one value yielded by a Coroutine's Step method.
type Step struct {
	Kind   Kind
	State  *TaskState
	Nested Coroutine
	Call   *CallValue
}

// CallValue wraps the resolved value of a completed wait/call.
type CallValue struct {
	Value any
}

// Coroutine is a suspendable unit of work. Step advances it by one tick,
// optionally passing sent (the value resumption delivers, e.g. a nested
// coroutine's final value). done is true once the coroutine has no more
// work; a non-nil err mirrors a handler-raised exception.
type Coroutine interface {
	Step(sent any) (Step, bool, error)
}

// TaskState is the mutable record shared between a suspended wait/call
// coroutine and the temporary handlers installed to wake it.
type TaskState struct {
	mu sync.Mutex

	// Run is set once the awaited event has been observed.
	Run bool
	// Flag is set once the awaited event's "done" has been observed.
	Flag bool
	// Event is the observed event instance, once Run is set.
	Event *event.Event
	// Timeout is the tick countdown; negative means infinite.
	Timeout int

	// TaskEvent, Task, and Parent are populated by the scheduler
	// immediately after the coroutine's first Step call, so the
	// dynamically-installed handlers can identify exactly which
	// suspended task tuple to requeue.
	TaskEvent *event.Event
	Task      Coroutine
	Parent    Coroutine
}

func (s *TaskState) setRun(ev *event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Run = true
	s.Event = ev
	ev.AlertDone = true
}

func (s *TaskState) setFlag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Flag = true
}

func (s *TaskState) isFlagged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Flag
}

// decrementTimeout reduces Timeout by one and reports whether it has
// expired (reached zero while non-negative to begin with).
func (s *TaskState) decrementTimeout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Timeout < 0 {
		return false
	}
	s.Timeout--
	return s.Timeout <= 0
}

// Host is the subset of pkg/bus.Manager that Wait/Call coroutines need:
// dynamic handler registration, firing, and requeuing themselves for a
// future Step once an installed handler observes their wakeup condition.
// Declared here, rather than importing pkg/bus, to keep bus the only
// package depending on task (task has no dependency on bus).
type Host interface {
	AddHandler(h *handler.Handler)
	RemoveHandler(h *handler.Handler)
	Fire(ev *event.Event, channels ...string) *event.Value
	// Requeue schedules the coroutine owning state to be stepped again on
	// the next tick. Keyed by *TaskState rather than Coroutine identity:
	// Call wraps an inner waitCoroutine whose installed handlers only
	// ever see that inner coroutine, not the outer one the scheduler
	// registered, but both share the one TaskState built at install time.
	Requeue(state *TaskState)
}
