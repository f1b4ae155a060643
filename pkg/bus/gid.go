package bus

import (
	"runtime"
	"strconv"
	"strings"
)

// goroutineID parses the running goroutine's numeric id out of its own
// stack trace header ("goroutine 37 [running]:..."). Go deliberately
// exposes no public goroutine-identity API; this is the well-known,
// if unusual, way to recover one. It is used only as an affinity check,
// to tell whether the caller of Fire is the dispatcher goroutine itself
// or a foreign one, never for correctness-critical exclusion, which
// always goes through the manager's mutex regardless of the answer.
func goroutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	stack := string(buf[:n])

	const prefix = "goroutine "
	if !strings.HasPrefix(stack, prefix) {
		return -1
	}
	rest := stack[len(prefix):]
	if idx := strings.IndexByte(rest, ' '); idx >= 0 {
		rest = rest[:idx]
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return -1
	}
	return id
}

// onDispatcherGoroutine reports whether the calling goroutine is the one
// that most recently entered flush. This is tracked independently of
// Run/Stop: a manager driven only by direct Tick calls (never Run) still
// needs Fire's cause-inheritance and foreign-wake logic to work from
// inside its own handlers.
func (m *Manager) onDispatcherGoroutine() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatcherGoroutineSet && m.dispatcherGoroutine == goroutineID()
}
