package taskgraph

import (
	"sync/atomic"
	"unsafe"
)

// TaskKind classifies a schedulable node. Fixed at construction.
type TaskKind int16

const (
	// TaskTeam is a runnable executed by a cooperating team of workers.
	TaskTeam TaskKind = iota
	// TaskSingle is a runnable executed by a single worker.
	TaskSingle
	// TaskAggregate is a payload-free join node.
	TaskAggregate
)

// String returns a human-readable representation of the kind.
func (k TaskKind) String() string {
	switch k {
	case TaskTeam:
		return "Team"
	case TaskSingle:
		return "Single"
	case TaskAggregate:
		return "Aggregate"
	default:
		return "Unknown"
	}
}

// Priority orders ready tasks within the queue. Aggregates are always
// [PriorityRegular]; they exist for synchronization, not user work.
type Priority int16

const (
	PriorityHigh Priority = iota
	PriorityRegular
	PriorityLow
)

// String returns a human-readable representation of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityRegular:
		return "Regular"
	case PriorityLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// TaskNode is the common supertype of all schedulable work.
//
// Layout constraint: TaskNode must be the first field of every concrete task
// type ([RunnableTaskBase] is in turn the first field of [RunnableTask]).
// The checked downcasts AsRunnable/AsAggregate and the pool's size-tracked
// reclamation rely on a *TaskNode aliasing the start of the concrete
// allocation, mirroring how allocationSizedBase leads TaskNode itself.
//
// The wait queue and the reference count are safe for uncoordinated
// concurrent use. Kind and allocation size are immutable after construction.
// Priority is mutable only while the node is not enqueued. The next link is
// owned by the wait queue the node is currently blocked in.
type TaskNode struct {
	allocationSizedBase // must remain first
	referenceCountedBase

	waitQueue waitQueue

	// next is the intrusive linkage used while this node waits on another
	// node's wait queue. A node is blocked on at most one producer at a
	// time.
	next *TaskNode

	// owningQueue is a non-owning back-reference to the ready queue this
	// node is scheduled against.
	owningQueue *ReadyQueue

	kind     TaskKind
	priority Priority
	enqueued atomic.Bool
}

// initTaskNode establishes the immutable identity of a node. Called exactly
// once, by the concrete constructors.
func initTaskNode(n *TaskNode, kind TaskKind, priority Priority, queue *ReadyQueue, initialReferenceCount, allocationSize int32) {
	n.allocSize = allocationSize
	n.refCount.Store(initialReferenceCount)
	n.owningQueue = queue
	n.kind = kind
	n.priority = priority
}

// Kind returns the node's classification, fixed at construction.
func (n *TaskNode) Kind() TaskKind { return n.kind }

// IsAggregate reports whether the node is a join node.
func (n *TaskNode) IsAggregate() bool { return n.kind == TaskAggregate }

// IsRunnable reports whether the node carries an executable payload.
func (n *TaskNode) IsRunnable() bool { return n.kind != TaskAggregate }

// IsSingleRunnable reports whether the node executes on a single worker.
func (n *TaskNode) IsSingleRunnable() bool { return n.kind == TaskSingle }

// IsTeamRunnable reports whether the node executes on a worker team.
func (n *TaskNode) IsTeamRunnable() bool { return n.kind == TaskTeam }

// AsRunnable returns the runnable view of the node. Calling it on an
// aggregate is a programmer error and panics.
func (n *TaskNode) AsRunnable() *RunnableTaskBase {
	if !n.IsRunnable() {
		panic("taskgraph: node is not a runnable task")
	}
	return (*RunnableTaskBase)(unsafe.Pointer(n))
}

// AsAggregate returns the aggregate view of the node. Calling it on a
// runnable is a programmer error and panics.
func (n *TaskNode) AsAggregate() *AggregateTask {
	if !n.IsAggregate() {
		panic("taskgraph: node is not an aggregate task")
	}
	return (*AggregateTask)(unsafe.Pointer(n))
}

// TryAddWaiting registers dependent as a waiter on this node's completion.
// It fails iff this node's wait queue has already been consumed; the caller
// must then treat this node as complete and schedule dependent itself.
func (n *TaskNode) TryAddWaiting(dependent *TaskNode) bool {
	return n.waitQueue.tryPush(dependent)
}

// ConsumeWaitQueue drains the wait queue exactly once, visiting every waiter
// that won its push race. Panics if the queue was already consumed.
func (n *TaskNode) ConsumeWaitQueue(visit func(waiter *TaskNode)) {
	n.waitQueue.consume(visit)
}

// WaitQueueIsConsumed reports whether the node has completed to the point of
// draining its waiters. Observational only.
func (n *TaskNode) WaitQueueIsConsumed() bool {
	return n.waitQueue.isConsumed()
}

// OwningQueue returns the ready queue this node is scheduled against.
func (n *TaskNode) OwningQueue() *ReadyQueue { return n.owningQueue }

// Priority returns the node's current priority.
func (n *TaskNode) Priority() Priority { return n.priority }

// SetPriority changes the node's priority. The node must not currently be
// enqueued in a ready queue; violating that would corrupt the queue's
// ordering and panics.
func (n *TaskNode) SetPriority(p Priority) {
	if n.enqueued.Load() {
		panic("taskgraph: priority mutated while node is enqueued")
	}
	n.priority = p
}

// markEnqueued flags the node as resident in a ready queue.
func (n *TaskNode) markEnqueued() {
	if n.enqueued.Swap(true) {
		panic("taskgraph: node enqueued twice")
	}
}

// markDequeued clears the ready-queue residency flag.
func (n *TaskNode) markDequeued() {
	if !n.enqueued.Swap(false) {
		panic("taskgraph: node dequeued while not enqueued")
	}
}

// isEnqueued reports ready-queue residency. Observational only.
func (n *TaskNode) isEnqueued() bool { return n.enqueued.Load() }
