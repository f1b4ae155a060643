// Package handler describes the metadata bound to a callable registered
// against one or more event names and a channel: priority, filter
// behavior, and whether the callable wants the firing event itself.
package handler

import "fmt"

// Func is a registered callable. args/kwargs are the firing event's
// payload; when the owning Handler.WantsEvent is true, the caller
// (pkg/bus) prepends the event itself as the first element of args.
//
// The return value is one of:
//   - nil: the handler ran but produced nothing.
//   - a plain value: stored into the event's Value.
//   - a non-nil error: treated as a handler failure (pkg/bus's handler-
//     raised path), propagated as the function's error return instead of
//     a panic, since panics are reserved for the termination-signal path.
//   - a task.Coroutine (carried as any to avoid an import cycle): the
//     handler has suspended via Wait/Call and should be scheduled.
type Func func(args []any, kwargs map[string]any) (any, error)

// Handler is the metadata bound to a registered Func.
type Handler struct {
	// Label is a human-readable identifier used in logs and error
	// reporting; it has no effect on matching.
	Label string

	// Names is the set of event names this handler matches; empty means
	// catch-all (matches every event name on a matching channel).
	Names []string

	// Channel is this handler's own channel override. Empty string means
	// "inherit from the owning component's channel".
	Channel string

	// Priority controls invocation order: higher priority handlers run
	// first among those resolved for the same event.
	Priority int

	// Filter, if true and the handler's return value is truthy, stops
	// dispatch of every strictly-lower-priority handler for that event.
	// Handlers at the same priority still run, in whatever order the
	// resolution cache's (priority desc, filter desc) sort left them.
	Filter bool

	// WantsEvent, if true, has the event object itself prepended to args
	// before invocation.
	WantsEvent bool

	// Fn is the callable itself.
	Fn Func
}

// Option configures a Handler at construction time.
type Option func(*Handler)

// WithChannel overrides the handler's channel (default: inherit).
func WithChannel(channel string) Option {
	return func(h *Handler) { h.Channel = channel }
}

// WithPriority sets the handler's dispatch priority (default: 0).
func WithPriority(priority int) Option {
	return func(h *Handler) { h.Priority = priority }
}

// WithFilter marks the handler as a filter handler.
func WithFilter() Option {
	return func(h *Handler) { h.Filter = true }
}

// WithEvent marks the handler as wanting the event object prepended to args.
func WithEvent() Option {
	return func(h *Handler) { h.WantsEvent = true }
}

// WithLabel sets a human-readable label for logs and error reporting.
func WithLabel(label string) Option {
	return func(h *Handler) { h.Label = label }
}

// New builds a Handler bound to fn, matching the given event names (empty
// means catch-all).
func New(fn Func, names []string, opts ...Option) *Handler {
	h := &Handler{
		Names: names,
		Fn:    fn,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.Label == "" {
		h.Label = fmt.Sprintf("handler(%v)", names)
	}
	return h
}

// EffectiveChannel resolves the handler's match channel, falling back to
// the owning component's channel when the handler itself has none set.
func (h *Handler) EffectiveChannel(ownerChannel string) string {
	if h.Channel != "" {
		return h.Channel
	}
	return ownerChannel
}

// MatchesName reports whether the handler matches event name n (a
// catch-all handler, with empty Names, matches everything).
func (h *Handler) MatchesName(n string) bool {
	if len(h.Names) == 0 {
		return true
	}
	for _, name := range h.Names {
		if name == n {
			return true
		}
	}
	return false
}

// MatchesChannel reports whether the handler's effective channel matches
// destination channel c, applying "*" as a wildcard on either side.
func (h *Handler) MatchesChannel(ownerChannel, c string) bool {
	eff := h.EffectiveChannel(ownerChannel)
	return eff == "*" || c == "*" || eff == c
}

func (h *Handler) String() string {
	return h.Label
}

// SortKey orders handlers by (priority desc, filter desc) as required by
// the resolution contract; ties are left in whatever order the caller's
// sort leaves them. sort.SliceStable keeps equal keys in the order
// component.Resolve returned them, which follows map iteration, not
// registration order.
func SortKey(h *Handler) (int, bool) {
	return h.Priority, h.Filter
}
