// Package component implements the tree of event-bus components: each
// node owns a handler table and a channel, proxies firing/registration to
// its root, and can be spliced into or out of a parent's subtree.
package component

import (
	"fmt"
	"sync"

	"github.com/cuemby/relay/pkg/handler"
	"github.com/google/uuid"
)

// Root is the subset of the root manager's API a Component needs without
// importing pkg/bus, which itself imports pkg/component: this avoids
// what would otherwise be a cycle (bus.Manager embeds *Component).
type Root interface {
	MarkCacheDirty()
	// AdoptQueued merges any events still queued on oldRoot (c's root
	// before this splice) into this Root's own queue, once c has been
	// rebound here. oldRoot is nil if c had no Root of its own (a bare
	// detached Component was never fired on).
	AdoptQueued(c *Component, oldRoot Root)
	FireRegistered(component, manager *Component)
	FireUnregistered(component, manager *Component)
	// Running reports whether this root's dispatcher is currently active,
	// used by Register to detect an attempt to adopt an already-running
	// subtree under an already-running root.
	Running() bool
}

// Component is one node of the event-bus tree. The root of a tree embeds
// a Component whose Root field points back at itself.
type Component struct {
	mu sync.RWMutex

	// Name is a human-readable label, defaulted to a random id if unset.
	Name string

	// Channel is this component's default channel, "*" unless overridden.
	Channel string

	parent *Component
	root   *Component
	bus    Root
	children map[*Component]struct{}

	// handlers maps event name -> handlers registered under that name;
	// the "*" key holds this component's own catch-all handlers.
	handlers map[string]map[*handler.Handler]struct{}
}

// New constructs a detached component (parent == root == itself) with
// the default "*" channel.
func New(name string) *Component {
	if name == "" {
		name = uuid.NewString()
	}
	c := &Component{
		Name:     name,
		Channel:  "*",
		children: make(map[*Component]struct{}),
		handlers: make(map[string]map[*handler.Handler]struct{}),
	}
	c.parent = c
	c.root = c
	return c
}

// Root returns the root component of c's tree.
func (c *Component) Root() *Component {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.root
}

// Parent returns c's parent (c itself if detached).
func (c *Component) Parent() *Component {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.parent
}

// Children returns a snapshot of c's direct children.
func (c *Component) Children() []*Component {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Component, 0, len(c.children))
	for ch := range c.children {
		out = append(out, ch)
	}
	return out
}

// SetBus attaches the root manager implementation; called once, by the
// manager constructor, on the component it embeds.
func (c *Component) SetBus(b Root) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bus = b
}

// bindRoot walks down from c setting root/bus on c and its whole subtree,
// called after a splice changes which tree c belongs to.
func (c *Component) bindRoot(root *Component, bus Root) {
	c.mu.Lock()
	c.root = root
	c.bus = bus
	children := make([]*Component, 0, len(c.children))
	for ch := range c.children {
		children = append(children, ch)
	}
	c.mu.Unlock()
	for _, ch := range children {
		ch.bindRoot(root, bus)
	}
}

// AddHandler registers h against c, filed under each of h's declared
// names (or the "*" catch-all bucket if h has none), and marks the
// root's resolution cache dirty.
func (c *Component) AddHandler(h *handler.Handler) {
	keys := h.Names
	if len(keys) == 0 {
		keys = []string{"*"}
	}

	c.mu.Lock()
	for _, name := range keys {
		bucket := c.handlers[name]
		if bucket == nil {
			bucket = make(map[*handler.Handler]struct{})
			c.handlers[name] = bucket
		}
		bucket[h] = struct{}{}
	}
	bus := c.bus
	c.mu.Unlock()

	if bus != nil {
		bus.MarkCacheDirty()
	}
}

// RemoveHandler unregisters h from every name bucket it was filed under
// (or the "*" bucket for catch-all handlers), and marks the cache dirty.
func (c *Component) RemoveHandler(h *handler.Handler) {
	c.mu.Lock()
	names := h.Names
	if len(names) == 0 {
		names = []string{"*"}
	}
	for _, name := range names {
		if bucket, ok := c.handlers[name]; ok {
			delete(bucket, h)
			if len(bucket) == 0 {
				delete(c.handlers, name)
			}
		}
	}
	bus := c.bus
	c.mu.Unlock()
	if bus != nil {
		bus.MarkCacheDirty()
	}
}

// HandlersFor returns c's own handlers matching event name n: the
// catch-all bucket plus the named bucket, deduplicated.
func (c *Component) HandlersFor(n string) []*handler.Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[*handler.Handler]struct{})
	var out []*handler.Handler
	for _, key := range [2]string{"*", n} {
		for h := range c.handlers[key] {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}

func (c *Component) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("<Component %s channel=%s>", c.Name, c.Channel)
}
