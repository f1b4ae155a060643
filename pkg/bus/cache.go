package bus

import (
	"sort"

	"github.com/cuemby/relay/pkg/component"
	"github.com/cuemby/relay/pkg/handler"
	"github.com/cuemby/relay/pkg/metrics"
)

// resolve returns the ordered handler list for (name, channels), using
// the memoized cache when clean. Must only be called from the dispatcher
// goroutine. Each read and write of m.cache holds m.mu, but the lock is
// released between the lookup and the store, so two concurrent resolvers
// could both compute and store the same entry.
func (m *Manager) resolve(name string, channels []string) []*handler.Handler {
	m.mu.Lock()
	dirty := m.cacheDirty
	if dirty {
		m.cache = make(map[cacheKey][]*handler.Handler)
		m.cacheDirty = false
	}
	m.mu.Unlock()

	key := makeCacheKey(name, channels)

	m.mu.Lock()
	cached, ok := m.cache[key]
	m.mu.Unlock()
	if ok {
		return cached
	}

	handlers := component.Resolve(m.Component, name, channels)
	sort.SliceStable(handlers, func(i, j int) bool {
		pi, fi := handler.SortKey(handlers[i])
		pj, fj := handler.SortKey(handlers[j])
		if pi != pj {
			return pi > pj
		}
		return fi && !fj
	})

	m.mu.Lock()
	m.cache[key] = handlers
	m.mu.Unlock()

	if dirty {
		metrics.CacheRebuildsTotal.Inc()
	}
	return handlers
}
