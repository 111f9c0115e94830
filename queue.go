package taskgraph

import (
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// SchedInfo is the scheduling info the default queue traits attach to every
// runnable and aggregate node: the sequence number assigned at enqueue time,
// used to keep wake-up order FIFO within a priority band. It is retained on
// the node across passes so a respawning task can be correlated with its
// previous position in diagnostics.
type SchedInfo struct {
	seq uint64
}

// EnqueueSeq returns the sequence number of the node's most recent enqueue.
func (i *SchedInfo) EnqueueSeq() uint64 { return i.seq }

// readyKey orders the ready tree: priority band first, enqueue sequence as
// the FIFO tie-break within a band.
type readyKey struct {
	priority Priority
	seq      uint64
}

func compareReadyKeys(a, b interface{}) int {
	ka, kb := a.(readyKey), b.(readyKey)
	switch {
	case ka.priority < kb.priority:
		return -1
	case ka.priority > kb.priority:
		return 1
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	default:
		return 0
	}
}

// ReadyQueue is the default queue-traits implementation: an ordered
// multi-priority ready queue over a red-black tree keyed by (priority band,
// enqueue sequence). It owns the enqueued flag on its nodes, which is what
// gates priority mutation.
//
// Aggregates are never enqueued; they complete through dependence tracking
// rather than execution.
type ReadyQueue struct {
	mu   sync.Mutex
	tree *redblacktree.Tree
	seq  uint64
	size int
}

// NewReadyQueue creates an empty ready queue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{tree: redblacktree.NewWith(compareReadyKeys)}
}

// Push inserts a runnable node, marking it enqueued. Pushing an aggregate is
// a programmer error and panics.
func (q *ReadyQueue) Push(n *TaskNode) {
	if n.IsAggregate() {
		panic("taskgraph: aggregates are never enqueued")
	}
	n.markEnqueued()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	n.AsRunnable().SchedulingInfo().seq = q.seq
	q.tree.Put(readyKey{priority: n.Priority(), seq: q.seq}, n)
	q.size++
}

// Pop removes and returns the highest-priority, least-recently-enqueued
// node. Returns false if the queue is empty.
func (q *ReadyQueue) Pop() (*TaskNode, bool) {
	q.mu.Lock()
	node := q.tree.Left()
	if node == nil {
		q.mu.Unlock()
		return nil, false
	}
	q.tree.Remove(node.Key)
	q.size--
	n := node.Value.(*TaskNode)
	n.markDequeued()
	q.mu.Unlock()
	return n, true
}

// Len returns the number of enqueued nodes.
func (q *ReadyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
