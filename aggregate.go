package taskgraph

import (
	"sync/atomic"
	"unsafe"
)

// AggregateTask is a join node: it carries no payload, and becomes ready
// exactly once, when all of its registered predecessors have completed. Its
// fan-in is fixed at construction; the slot array is never reallocated.
//
// Aggregates always have [PriorityRegular]: they exist for synchronization,
// not user work prioritization.
type AggregateTask struct {
	TaskNode // must remain first
	SchedulingInfoStorage[SchedInfo]

	// predecessors holds one owning reference per registered dependency. A
	// slot is cleared when its task completes; distinct completers touch
	// distinct slots, so the slots are individually atomic rather than
	// guarded by a lock.
	predecessors []atomic.Pointer[TaskNode]

	remaining atomic.Int32
}

// NewAggregateTask constructs a join node with dependenceCount predecessor
// slots. The reported allocation size covers the node plus its per-instance
// slot storage, since the pool reclaims both together.
func NewAggregateTask(queue *ReadyQueue, initialReferenceCount, dependenceCount int32) *AggregateTask {
	if dependenceCount < 0 {
		panic("taskgraph: negative aggregate dependence count")
	}
	t := &AggregateTask{predecessors: make([]atomic.Pointer[TaskNode], dependenceCount)}
	slotBytes := dependenceCount * int32(unsafe.Sizeof(atomic.Pointer[TaskNode]{}))
	initTaskNode(&t.TaskNode, TaskAggregate, PriorityRegular, queue, initialReferenceCount, int32(unsafe.Sizeof(*t))+slotBytes)
	t.remaining.Store(dependenceCount)
	return t
}

// DependenceCount returns the fan-in fixed at construction.
func (t *AggregateTask) DependenceCount() int32 {
	return int32(len(t.predecessors))
}

// Dependence returns the predecessor currently held in slot i, or nil once
// that predecessor has completed.
func (t *AggregateTask) Dependence(i int32) *TaskNode {
	return t.predecessors[i].Load()
}

// SetDependence stores p in slot i, taking a keep-alive reference on p.
// Writing to an occupied slot is a programmer error and panics.
func (t *AggregateTask) SetDependence(i int32, p *TaskNode) {
	p.IncrementReferenceCount()
	if !t.predecessors[i].CompareAndSwap(nil, p) {
		panic("taskgraph: aggregate dependence slot written twice")
	}
}

// notifyDependenceComplete clears the slot owning p and reports whether that
// was the last outstanding dependence, i.e. whether the aggregate is now
// ready. Safe against concurrent calls for distinct predecessors; the
// remaining counter makes the ready transition exactly-once regardless of
// clearing order. The caller assumes ownership of the cleared slot's
// keep-alive reference on p and must release it.
func (t *AggregateTask) notifyDependenceComplete(p *TaskNode) bool {
	for i := range t.predecessors {
		if t.predecessors[i].Load() == p && t.predecessors[i].CompareAndSwap(p, nil) {
			remaining := t.remaining.Add(-1)
			if remaining < 0 {
				panic("taskgraph: aggregate dependence cleared below zero")
			}
			return remaining == 0
		}
	}
	panic("taskgraph: completed task is not a dependence of this aggregate")
}
