package bus

import (
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/log"
)

// maxStopDrainTicks caps the Stop drain loop at a deterministic "drain
// until empty" policy, so a handler that keeps re-firing events during
// shutdown cannot wedge it forever.
const maxStopDrainTicks = 1000

var mainThreadClaimed atomic.Bool

// Start spawns a goroutine running Run(false) and returns immediately.
// It takes no process or link options: it never starts a subprocess and
// never attaches a bridge. Start does not install signal handlers, since
// those are reserved for Run on the designated main-thread manager.
func (m *Manager) Start() {
	go func() {
		if err := m.Run(false); err != nil {
			log.Error("manager run failed: " + err.Error())
		}
	}()
}

// Run is the synchronous entry point: it runs tick() until Stop is
// called and the queue drains, then returns. When isMain is true, Run
// additionally installs signal handlers for interrupt/terminate.
// At most one manager per process holds them at a time, enforced by a
// runtime check rather than a compile-time restriction: a second isMain
// Run installs none.
func (m *Manager) Run(isMain bool) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	var sigCh chan os.Signal
	if isMain && mainThreadClaimed.CompareAndSwap(false, true) {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer func() {
			signal.Stop(sigCh)
			mainThreadClaimed.Store(false)
		}()
		go m.watchSignals(sigCh)
	}

	m.Fire(event.NewStarted(m.Component))

	for m.isRunning() || m.queueLen() > 0 {
		m.Tick(m.GenerateEventsTimeout)
	}

	for i := 0; i < 3; i++ {
		m.Tick(0)
	}

	return nil
}

func (m *Manager) watchSignals(sigCh chan os.Signal) {
	for sig := range sigCh {
		signo := 0
		if s, ok := sig.(syscall.Signal); ok {
			signo = int(s)
		}
		m.Fire(event.NewSignal(signo, string(debug.Stack())))
		m.Stop()
		return
	}
}

func (m *Manager) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Stop fires the stopped event, clears the running flag, and pumps
// ticks until one full tick observes both an empty queue and an empty
// task set (or the drain cap is hit).
func (m *Manager) Stop() {
	m.Fire(event.NewStopped(m.Component))

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	for i := 0; i < maxStopDrainTicks; i++ {
		m.Tick(0)
		m.mu.Lock()
		empty := m.queue.Len() == 0 && len(m.pending) == 0 && len(m.ready) == 0
		m.mu.Unlock()
		if empty {
			return
		}
	}
	m.logger.Warn().Msg("stop drain cap reached with events or tasks still outstanding")
}

// Tick runs one scheduler iteration: step ready tasks, fire
// generate_events with the given time budget if still running, then
// flush the queue if non-empty. A handler that raised a termination
// signal during this flush stops the manager before Tick returns.
func (m *Manager) Tick(timeout time.Duration) {
	m.stepReady()

	if m.isRunning() {
		ev := event.NewGenerateEvents(&m.mu, timeout)
		m.Fire(ev, "*")
	}

	if m.queueLen() > 0 {
		if m.flush() {
			m.Stop()
		}
	}
}
