package bus

import (
	"testing"

	"github.com/cuemby/relay/pkg/component"
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Registering a previously self-rooted Manager's Component under another
// Manager's tree must carry its still-queued events along, not strand
// them behind a queue nothing drains anymore.
func TestAdoptQueuedMergesFormerlySelfRootedManagerQueue(t *testing.T) {
	child := New("child")
	child.Fire(event.New("Foo"))
	require.Equal(t, 1, child.queue.Len())

	root := New("root")
	var called bool
	root.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		called = true
		return nil, nil
	}, []string{"foo"}))

	require.NoError(t, child.Register(root.Component))

	assert.Equal(t, 0, child.queue.Len())

	root.Tick(0)
	assert.True(t, called)
}

// Re-parenting a node to a new parent within the same tree leaves oldRoot
// and newBus both pointing at the same Manager. AdoptQueued must recognize
// that and leave the queue alone instead of draining and re-enqueuing it.
// Each Register also queues one Registered event, so the queue holds two
// Registered events plus Foo before the re-parent, and one more after.
func TestAdoptQueuedNoopsWithinSameManager(t *testing.T) {
	m := New("root")
	a := component.New("a")
	require.NoError(t, a.Register(m.Component))
	b := component.New("b")
	require.NoError(t, b.Register(m.Component))

	m.Fire(event.New("Foo"))
	require.Equal(t, 3, m.queue.Len())

	require.NoError(t, a.Register(b))

	assert.Equal(t, 4, m.queue.Len())
}
