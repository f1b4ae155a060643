package bus

import (
	"errors"
	"testing"

	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 : basic fire: a single handler on channel "*" is invoked once, and
// the returned Value carries its return.
func TestBasicFire(t *testing.T) {
	m := New("test")
	calls := 0
	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		calls++
		return "A.foo", nil
	}, []string{"foo"}))

	v := m.Fire(event.New("Foo"))
	m.Tick(0)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "A.foo", v.Value)
}

// S2 : priority + filter: a higher-priority filter handler returning
// truthy prevents the lower-priority handler from running.
func TestPriorityAndFilter(t *testing.T) {
	m := New("test")
	var ran []string

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "h1")
		return true, nil
	}, []string{"foo"}, handler.WithPriority(10), handler.WithFilter()))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "h2")
		return nil, nil
	}, []string{"foo"}, handler.WithPriority(1)))

	m.Fire(event.New("Foo"))
	m.Tick(0)

	assert.Equal(t, []string{"h1"}, ran)
}

// A truthy filter handler only blocks strictly-lower-priority handlers;
// one resolved at the same priority still runs.
func TestFilterDoesNotBlockSamePriorityHandler(t *testing.T) {
	m := New("test")
	var ran []string

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "filter")
		return true, nil
	}, []string{"foo"}, handler.WithPriority(5), handler.WithFilter()))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "sibling")
		return nil, nil
	}, []string{"foo"}, handler.WithPriority(5)))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "lower")
		return nil, nil
	}, []string{"foo"}, handler.WithPriority(1)))

	m.Fire(event.New("Foo"))
	m.Tick(0)

	assert.Equal(t, []string{"filter", "sibling"}, ran)
}

// S5 : error isolation: a handler that errors does not stop the
// remaining same-priority handlers from running, and failure/error
// events are fired appropriately.
func TestErrorIsolation(t *testing.T) {
	m := New("test")
	var ran []string

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "h1")
		return nil, errors.New("boom")
	}, []string{"foo"}))
	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "h2")
		return nil, nil
	}, []string{"foo"}))
	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		ran = append(ran, "h3")
		return nil, nil
	}, []string{"foo"}))

	var failureFired bool
	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		failureFired = true
		return nil, nil
	}, []string{"foo_failure"}))

	ev := event.New("Foo")
	ev.Failure = true
	v := m.Fire(ev)
	m.Tick(0)
	m.Tick(0)

	assert.ElementsMatch(t, []string{"h1", "h2", "h3"}, ran)
	assert.True(t, v.Errors)
	assert.True(t, failureFired)
}

// Invariant 1: Value is observable before Fire returns, and equals the
// last non-nil handler return.
func TestValueObservableBeforeTickAndAfter(t *testing.T) {
	m := New("test")
	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		return 1, nil
	}, []string{"foo"}, handler.WithPriority(1)))
	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		return 2, nil
	}, []string{"foo"}, handler.WithPriority(0)))

	v := m.Fire(event.New("Foo"))
	require.NotNil(t, v)
	assert.Nil(t, v.Value) // not yet dispatched

	m.Tick(0)
	assert.Equal(t, 2, v.Value) // last handler by priority order
}

// Invariant 2: equal-priority events fired from the same goroutine
// dispatch in FIFO order.
func TestFIFOWithinEqualPriority(t *testing.T) {
	m := New("test")
	var order []string
	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		order = append(order, args[0].(string))
		return nil, nil
	}, []string{"foo"}))

	e1 := event.New("Foo", "first")
	e2 := event.New("Foo", "second")
	e3 := event.New("Foo", "third")
	m.Fire(e1)
	m.Fire(e2)
	m.Fire(e3)
	m.Tick(0)

	require.Len(t, order, 3)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}
