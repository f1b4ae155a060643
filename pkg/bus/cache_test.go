package bus

import (
	"testing"

	"github.com/cuemby/relay/pkg/component"
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/stretchr/testify/assert"
)

// Invariant 6: the handler-resolution cache never returns a stale
// handler set across a register/unregister that happens between two
// dispatches of the same (name, channels) pair.
func TestCacheReflectsHandlerChangesAcrossDispatches(t *testing.T) {
	m := New("test")

	var calls []string
	h1 := handler.New(func(args []any, kwargs map[string]any) (any, error) {
		calls = append(calls, "h1")
		return nil, nil
	}, []string{"foo"})
	m.AddHandler(h1)

	m.Fire(event.New("Foo"))
	m.Tick(0)
	assert.Equal(t, []string{"h1"}, calls)

	h2 := handler.New(func(args []any, kwargs map[string]any) (any, error) {
		calls = append(calls, "h2")
		return nil, nil
	}, []string{"foo"})
	m.AddHandler(h2)

	calls = nil
	m.Fire(event.New("Foo"))
	m.Tick(0)
	assert.ElementsMatch(t, []string{"h1", "h2"}, calls)

	m.RemoveHandler(h1)

	calls = nil
	m.Fire(event.New("Foo"))
	m.Tick(0)
	assert.Equal(t, []string{"h2"}, calls)
}

// Registering a child component mid-flight also invalidates the cache,
// so a handler added on a newly-spliced subtree is reachable on the
// very next dispatch of a matching event.
func TestCacheReflectsNewlyRegisteredSubtree(t *testing.T) {
	m := New("test")

	var calls []string
	m.Fire(event.New("Foo"))
	m.Tick(0)
	assert.Empty(t, calls)

	child := component.New("worker")
	_ = child.Register(m.Component)
	child.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		calls = append(calls, "child")
		return nil, nil
	}, []string{"foo"}))

	m.Fire(event.New("Foo"))
	m.Tick(0)
	assert.Equal(t, []string{"child"}, calls)
}
