package component

import (
	"testing"

	"github.com/cuemby/relay/pkg/handler"
	"github.com/stretchr/testify/assert"
)

func TestResolveGathersMatchingHandlersAcrossTree(t *testing.T) {
	root := New("root")
	root.SetBus(&fakeRoot{})
	child := New("child")
	child.Channel = "workers"
	_ = child.Register(root)

	onFoo := handler.New(nil, []string{"foo"})
	root.AddHandler(onFoo)

	onFooWorkers := handler.New(nil, []string{"foo"}, handler.WithChannel("workers"))
	child.AddHandler(onFooWorkers)

	catchAll := handler.New(nil, nil)
	child.AddHandler(catchAll)

	// Firing on a specific channel excludes handlers bound to a
	// different specific channel.
	got := Resolve(root, "foo", []string{"other"})
	assert.Contains(t, got, onFoo) // onFoo inherits root's "*" channel
	assert.NotContains(t, got, onFooWorkers)

	got2 := Resolve(root, "foo", []string{"workers"})
	assert.Contains(t, got2, onFooWorkers)
	assert.Contains(t, got2, catchAll)
}

func TestResolveUnrelatedNameExcluded(t *testing.T) {
	root := New("root")
	root.SetBus(&fakeRoot{})
	h := handler.New(nil, []string{"bar"})
	root.AddHandler(h)

	got := Resolve(root, "foo", []string{"*"})
	assert.NotContains(t, got, h)
}
