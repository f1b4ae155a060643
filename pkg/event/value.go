package event

import (
	"sync"
	"weak"
)

// Value is the future-like result container attached to every fired event.
// It holds the latest handler return value (or the accumulated list when
// more than one handler returns non-nil), whether any handler errored, and
// whether a handler suspended it behind a wait/call coroutine.
type Value struct {
	// Value is the last non-nil value returned by a handler for the owning
	// event (or the captured (type, value, traceback) error triple).
	Value any

	// Values accumulates every non-nil handler return, in invocation order.
	Values []any

	// Errors is set once any handler invocation for the owning event raised.
	Errors bool

	// Promise is set when a handler returned a suspended coroutine instead
	// of a plain value.
	Promise bool

	// Done is set once every handler (and any coroutine it suspended) has
	// finished running for the owning event.
	Done bool
}

// NewValue constructs a fresh, empty Value.
func NewValue() *Value {
	return &Value{}
}

// Set records a handler's return value, appending to Values and updating
// the latest Value.
func (v *Value) Set(result any) {
	if result == nil {
		return
	}
	v.Value = result
	v.Values = append(v.Values, result)
}

// Registry indexes live Values by event without pinning them in memory,
// a weak-reference map keyed by event identity. Safe for concurrent use;
// entries are pruned lazily on lookup.
type Registry struct {
	mu      sync.Mutex
	entries map[*Event]weak.Pointer[Value]
}

// NewRegistry constructs an empty weak Value registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[*Event]weak.Pointer[Value])}
}

// Track records v as the Value for ev without preventing v's collection
// once the caller's own reference is dropped.
func (r *Registry) Track(ev *Event, v *Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[ev] = weak.Make(v)
}

// Lookup returns the still-live Value for ev, if any.
func (r *Registry) Lookup(ev *Event) (*Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wp, ok := r.entries[ev]
	if !ok {
		return nil, false
	}
	v := wp.Value()
	if v == nil {
		delete(r.entries, ev)
		return nil, false
	}
	return v, true
}

// Forget drops ev's entry, e.g. once the event is known to be fully done.
func (r *Registry) Forget(ev *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, ev)
}
