package bus

import (
	"container/heap"

	"github.com/cuemby/relay/pkg/event"
)

// queueEntry is one pending delivery: an event paired with the channel
// tuple it was frozen to at fire time, ordered by (priority desc,
// sequence asc) so higher-priority events dequeue first and events of
// equal priority dequeue in fire order.
type queueEntry struct {
	event    *event.Event
	channels []string
	priority int
	sequence uint64
	index    int
}

// priorityQueue implements container/heap.Interface over queueEntry,
// giving the manager a min-heap on (-priority, sequence): a max
// priority queue with FIFO tiebreaking.
type priorityQueue struct {
	entries []*queueEntry
}

func newPriorityQueue() *priorityQueue {
	pq := &priorityQueue{}
	heap.Init(pq)
	return pq
}

func (pq *priorityQueue) Len() int { return len(pq.entries) }

func (pq *priorityQueue) Less(i, j int) bool {
	a, b := pq.entries[i], pq.entries[j]
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.sequence < b.sequence
}

func (pq *priorityQueue) Swap(i, j int) {
	pq.entries[i], pq.entries[j] = pq.entries[j], pq.entries[i]
	pq.entries[i].index = i
	pq.entries[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	e := x.(*queueEntry)
	e.index = len(pq.entries)
	pq.entries = append(pq.entries, e)
}

func (pq *priorityQueue) Pop() any {
	old := pq.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	pq.entries = old[:n-1]
	return e
}

// push enqueues ev for delivery on channels at the given priority,
// stamping it with the next sequence number.
func (pq *priorityQueue) push(ev *event.Event, channels []string, priority int, seq uint64) {
	heap.Push(pq, &queueEntry{event: ev, channels: channels, priority: priority, sequence: seq})
}

// popAll removes and returns up to n entries in priority/sequence order,
// the "batch counter" flush mechanism: events fired while draining this
// batch land after it and are left for the next flush.
func (pq *priorityQueue) popAll(n int) []*queueEntry {
	if n > pq.Len() {
		n = pq.Len()
	}
	out := make([]*queueEntry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, heap.Pop(pq).(*queueEntry))
	}
	return out
}
