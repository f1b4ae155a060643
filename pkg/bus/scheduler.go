package bus

import (
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/log"
	"github.com/cuemby/relay/pkg/metrics"
	"github.com/cuemby/relay/pkg/task"
)

// registeredTask pairs a suspended coroutine with the event whose
// handler spawned it (for WaitingHandlers/onEventDone bookkeeping) and,
// when the coroutine was reached via a nested yield, the parent task
// waiting on its result.
type registeredTask struct {
	coro   task.Coroutine
	event  *event.Event
	parent *registeredTask
}

// Wait builds a Coroutine suspending until an event named name fires on
// channels (any channel, if empty), or timeout generate_events ticks
// elapse (negative = infinite). Call from within a handler body and
// return the result so pkg/bus can schedule it.
func (m *Manager) Wait(name string, channels []string, timeout int) task.Coroutine {
	return task.Wait(m, name, channels, timeout)
}

// Call fires ev on channels and then behaves exactly like Wait on ev's
// name, yielding ev's resolved value once observed.
func (m *Manager) Call(ev *event.Event, channels []string, timeout int) task.Coroutine {
	return task.Call(m, ev, channels, timeout)
}

// Requeue implements task.Host: schedules the task owning state to be
// stepped again on the manager's next tick, invoked by a wait/call
// coroutine's installed handlers once its wakeup condition is observed.
func (m *Manager) Requeue(state *task.TaskState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.pending[state]; ok {
		delete(m.pending, state)
		m.ready = append(m.ready, rt)
	}
}

// registerTask advances coro through its first Step and files the
// result, spawned from ev's handler (or, for a nested coroutine, from
// parent's own suspension).
func (m *Manager) registerTask(coro task.Coroutine, ev *event.Event, parent *registeredTask) {
	rt := &registeredTask{coro: coro, event: ev, parent: parent}
	m.updateTasksActive(1)
	step, done, err := coro.Step(nil)
	m.processStep(rt, step, done, err)
}

// stepReady drains the tasks Requeue marked ready and steps each once,
// run at the start of every Tick, before the queue is flushed.
func (m *Manager) stepReady() {
	m.mu.Lock()
	ready := m.ready
	m.ready = nil
	m.mu.Unlock()

	for _, rt := range ready {
		step, done, err := rt.coro.Step(nil)
		m.processStep(rt, step, done, err)
	}
}

func (m *Manager) processStep(rt *registeredTask, step task.Step, done bool, err error) {
	if err != nil {
		m.taskFailed(rt, err)
		return
	}

	if done && step.Kind != task.KindCall {
		m.updateTasksActive(-1)
		rt.event.WaitingHandlers--
		if rt.parent != nil {
			m.mu.Lock()
			m.ready = append(m.ready, rt.parent)
			m.mu.Unlock()
			return
		}
		if rt.event.WaitingHandlers == 0 {
			m.onEventDone(rt.event)
		}
		return
	}

	switch step.Kind {
	case task.KindState:
		step.State.TaskEvent = rt.event
		step.State.Task = rt.coro
		if rt.parent != nil {
			step.State.Parent = rt.parent.coro
		}
		m.mu.Lock()
		m.pending[step.State] = rt
		m.mu.Unlock()

	case task.KindNested:
		rt.event.WaitingHandlers++
		m.updateTasksActive(1)
		nested := step.Nested
		nrt := &registeredTask{coro: nested, event: rt.event, parent: rt}
		nstep, ndone, nerr := nested.Step(nil)
		m.processStep(nrt, nstep, ndone, nerr)

	case task.KindCall:
		m.updateTasksActive(-1)
		if rt.parent != nil {
			pstep, pdone, perr := rt.parent.coro.Step(step.Call.Value)
			m.processStep(rt.parent, pstep, pdone, perr)
			return
		}
		rt.event.Value.Set(step.Call.Value)
		rt.event.WaitingHandlers--
		if rt.event.WaitingHandlers == 0 {
			m.onEventDone(rt.event)
		}
	}
}

func (m *Manager) taskFailed(rt *registeredTask, err error) {
	m.updateTasksActive(-1)
	log.Error("task failed: " + err.Error())
	metrics.HandlerErrorsTotal.WithLabelValues(rt.event.Name).Inc()

	if rt.event.Failure {
		m.Fire(event.Failure(rt.event, err))
	}
	m.Fire(event.NewError(event.ErrorInfo{
		Type:      "task_error",
		Value:     err,
		Traceback: err.Error(),
	}, nil, rt.event))

	if rt.parent != nil {
		m.taskFailed(rt.parent, err)
		return
	}
	rt.event.WaitingHandlers--
	if rt.event.WaitingHandlers == 0 {
		m.onEventDone(rt.event)
	}
}

func (m *Manager) updateTasksActive(delta int) {
	m.mu.Lock()
	m.activeTasks += delta
	n := m.activeTasks
	m.mu.Unlock()
	metrics.TasksActive.Set(float64(n))
}
