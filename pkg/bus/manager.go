// Package bus implements the root event manager: the priority queue, the
// handler-resolution cache, the dispatch loop, the cooperative task
// scheduler, causal completion tracking, and the start/stop/run lifecycle
// described for the event-bus core. A Manager embeds a *component.Component
// and is itself always the root of its tree.
package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/relay/pkg/component"
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/metrics"
	"github.com/cuemby/relay/pkg/task"
	"github.com/rs/zerolog"
)

// DefaultGenerateEventsTimeout is the budget (in wall-clock time) a
// generate_events handler may block for when the manager otherwise has
// nothing pending.
const DefaultGenerateEventsTimeout = 100 * time.Millisecond

// Manager is the root of an event-bus tree: the sole owner of the event
// queue, sequence counter, handler-resolution cache, task set, and
// lifecycle state. Non-root components proxy firing and registration to
// the Manager that roots their tree.
type Manager struct {
	*component.Component

	logger zerolog.Logger

	mu sync.Mutex

	queue    *priorityQueue
	sequence uint64

	cache      map[cacheKey][]*handler.Handler
	cacheDirty bool

	pending     map[*task.TaskState]*registeredTask
	ready       []*registeredTask
	activeTasks int

	running                bool
	dispatcherGoroutine    int
	dispatcherGoroutineSet bool
	currentlyHandling      *event.Event

	values *event.Registry

	// GenerateEventsTimeout is the time budget Run() passes to Tick for
	// each iteration's generate_events poll. Defaults to
	// DefaultGenerateEventsTimeout; callers may lower it (tighter poll
	// latency) or raise it (less CPU spent waking for nothing).
	GenerateEventsTimeout time.Duration
}

// New constructs a detached root Manager named name (random if empty).
func New(name string) *Manager {
	m := &Manager{
		Component:             component.New(name),
		logger:                log.WithComponent("bus"),
		queue:                 newPriorityQueue(),
		cache:                 make(map[cacheKey][]*handler.Handler),
		pending:               make(map[*task.TaskState]*registeredTask),
		values:                event.NewRegistry(),
		GenerateEventsTimeout: DefaultGenerateEventsTimeout,
	}
	m.Component.SetBus(m)
	return m
}

// cacheKey is the handler-resolution memo key: an event name paired with
// its resolved channel tuple.
type cacheKey struct {
	name     string
	channels string
}

func makeCacheKey(name string, channels []string) cacheKey {
	return cacheKey{name: name, channels: fmt.Sprintf("%v", channels)}
}

// MarkCacheDirty implements component.Root: the next dispatch will
// rebuild the handler-resolution cache before resolving any event.
func (m *Manager) MarkCacheDirty() {
	m.mu.Lock()
	m.cacheDirty = true
	m.mu.Unlock()
}

// Running implements component.Root.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// AdoptQueued implements component.Root: drains oldRoot's whole queue (if
// oldRoot was itself a Manager, the only kind of component.Root that owns
// a queue) and re-enqueues every entry on this Manager, re-stamped with
// this Manager's own sequence counter so FIFO tiebreaking still holds
// within the merged queue. A no-op when oldRoot is nil (c had no Root of
// its own) or is this same Manager (re-parenting within one tree).
func (m *Manager) AdoptQueued(c *component.Component, oldRoot component.Root) {
	old, ok := oldRoot.(*Manager)
	if !ok || old == nil || old == m {
		return
	}

	old.mu.Lock()
	entries := old.queue.popAll(old.queue.Len())
	old.mu.Unlock()

	if len(entries) == 0 {
		return
	}

	m.mu.Lock()
	for _, entry := range entries {
		seq := m.sequence
		m.sequence++
		m.queue.push(entry.event, entry.channels, entry.priority, seq)
	}
	m.mu.Unlock()
}

// FireRegistered implements component.Root.
func (m *Manager) FireRegistered(comp, manager *component.Component) {
	m.Fire(event.NewRegistered(comp, manager))
}

// FireUnregistered implements component.Root.
func (m *Manager) FireUnregistered(comp, manager *component.Component) {
	m.Fire(event.NewUnregistered(comp, manager))
}

// AddHandler registers h on the Manager's own component node.
func (m *Manager) AddHandler(h *handler.Handler) {
	m.Component.AddHandler(h)
}

// RemoveHandler unregisters h from the Manager's own component node.
func (m *Manager) RemoveHandler(h *handler.Handler) {
	m.Component.RemoveHandler(h)
}

func (m *Manager) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("<Manager %s running=%v queued=%d tasks=%d>",
		m.Component.Name, m.running, m.queue.Len(), m.activeTasks)
}
