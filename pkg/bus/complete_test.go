package bus

import (
	"testing"

	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S3 : success/complete: root fires two children, each firing one
// grandchild. success fires once all of root's direct handlers finish;
// complete fires exactly once, after every transitively-caused event
// has finished.
func TestSuccessAndCompleteOrdering(t *testing.T) {
	m := New("test")

	var successFired, completeCount int
	var order []string

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		order = append(order, "root")
		m.Fire(event.New("C1"))
		m.Fire(event.New("C2"))
		return nil, nil
	}, []string{"root"}))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		order = append(order, "c1")
		m.Fire(event.New("G1"))
		return nil, nil
	}, []string{"c1"}))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		order = append(order, "c2")
		m.Fire(event.New("G2"))
		return nil, nil
	}, []string{"c2"}))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		order = append(order, "g1")
		return nil, nil
	}, []string{"g1"}))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		order = append(order, "g2")
		return nil, nil
	}, []string{"g2"}))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		successFired++
		return nil, nil
	}, []string{"root_success"}, handler.WithChannel("x")))

	m.AddHandler(handler.New(func(args []any, kwargs map[string]any) (any, error) {
		completeCount++
		return nil, nil
	}, []string{"root_complete"}))

	root := event.New("Root")
	root.Success = true
	root.SuccessChannels = []string{"x"}
	root.Complete = true

	m.Fire(root)

	for i := 0; i < 6 && (successFired == 0 || completeCount == 0); i++ {
		m.Tick(0)
	}

	require.Equal(t, 1, successFired)
	require.Equal(t, 1, completeCount)
	assert.Equal(t, []string{"root", "c1", "c2", "g1", "g2"}, order)
}
