package taskgraph

import (
	"sync/atomic"
	"unsafe"
)

// ApplyFn is the type-erased execution entry point of a runnable node. It is
// invoked once per execution pass for every member of the executing team
// (the sole member, for a single-runnable), with self aliasing the concrete
// task allocation.
type ApplyFn func(self *TaskNode, member *TeamMember)

// DestroyFn is the type-erased payload finalizer of a runnable node, invoked
// exactly once, when the reference count reaches zero.
type DestroyFn func(self *TaskNode)

// RunnableTaskBase adds the execution surface to a [TaskNode]: the
// type-erased apply and destroy entry points, at most one direct predecessor
// link, and the respawn flag.
//
// RunnableTaskBase must be the first field of every concrete runnable type;
// see the layout note on [TaskNode].
type RunnableTaskBase struct {
	TaskNode // must remain first
	SchedulingInfoStorage[SchedInfo]

	apply   ApplyFn
	destroy DestroyFn

	// predecessor is settable exactly once before the node is enqueued (or,
	// when respawning, by the executing member before resubmission), and is
	// cleared by the completion path once the dependency has been processed.
	predecessor *TaskNode

	// respawning is written during execution and must only be read after
	// the team barrier.
	respawning atomic.Bool
}

// initRunnableTaskBase wires the type-erased entry points. Called exactly
// once, by the concrete constructors.
func initRunnableTaskBase(r *RunnableTaskBase, apply ApplyFn, destroy DestroyFn) {
	if apply == nil {
		panic("taskgraph: runnable task requires an apply function")
	}
	r.apply = apply
	r.destroy = destroy
}

// Run invokes the type-erased apply entry point on behalf of member.
func (r *RunnableTaskBase) Run(member *TeamMember) {
	r.apply(&r.TaskNode, member)
}

// RespawnFlag reports whether the current execution pass requested respawn.
// For team execution it must not be read before the team barrier.
func (r *RunnableTaskBase) RespawnFlag() bool { return r.respawning.Load() }

// SetRespawnFlag marks the node for re-submission instead of finalization.
func (r *RunnableTaskBase) SetRespawnFlag(v bool) { r.respawning.Store(v) }

// HasPredecessor reports whether a predecessor is currently set.
func (r *RunnableTaskBase) HasPredecessor() bool { return r.predecessor != nil }

// Predecessor returns the direct predecessor. Calling it with none set is a
// programmer error and panics.
func (r *RunnableTaskBase) Predecessor() *TaskNode {
	if r.predecessor == nil {
		panic("taskgraph: task has no predecessor")
	}
	return r.predecessor
}

// SetPredecessor records p as this node's direct predecessor, taking a
// keep-alive reference so p cannot be reclaimed before this node observes
// its completion. Setting a predecessor while one is already set is a
// programmer error and panics.
func (r *RunnableTaskBase) SetPredecessor(p *TaskNode) {
	if r.predecessor != nil {
		panic("taskgraph: predecessor already set")
	}
	p.IncrementReferenceCount()
	r.predecessor = p
}

// ClearPredecessor drops the predecessor link. The caller assumes ownership
// of the keep-alive reference taken by SetPredecessor and must release it.
func (r *RunnableTaskBase) ClearPredecessor() { r.predecessor = nil }

// invokeDestroy finalizes the payload via the type-erased destroy entry
// point. Reached only from the reference count's zero transition.
func (r *RunnableTaskBase) invokeDestroy() {
	if r.destroy != nil {
		r.destroy(&r.TaskNode)
	}
}

// Empty is the result type of tasks that produce no value. Its result slot
// occupies no space.
type Empty = struct{}

// resultStorage is the result slot bound into a [RunnableTask]. For Empty
// results it contributes nothing to the allocation.
type resultStorage[Result any] struct {
	value Result
}

func (s *resultStorage[Result]) pointer() *Result { return &s.value }

// PayloadFn is the user-supplied work of a [RunnableTask], called once per
// execution pass per team member. member describes the calling worker's
// place in the executing team; result is the task's result slot, shared by
// all members of the team.
type PayloadFn[Result any] func(member *TeamMember, result *Result)

// RunnableTask binds a user payload and a result slot to a
// [RunnableTaskBase].
type RunnableTask[Result any] struct {
	RunnableTaskBase // must remain first

	result  resultStorage[Result]
	payload PayloadFn[Result]
}

// NewRunnableTask constructs a runnable node of the given kind. The initial
// reference count is set by the creator and typically covers one handle
// reference and one active-in-scheduler reference.
func NewRunnableTask[Result any](kind TaskKind, priority Priority, queue *ReadyQueue, initialReferenceCount int32, payload PayloadFn[Result]) *RunnableTask[Result] {
	if kind == TaskAggregate {
		panic("taskgraph: aggregate is not a runnable kind")
	}
	if payload == nil {
		panic("taskgraph: runnable task requires a payload")
	}
	t := &RunnableTask[Result]{payload: payload}
	initTaskNode(&t.TaskNode, kind, priority, queue, initialReferenceCount, int32(unsafe.Sizeof(*t)))
	initRunnableTaskBase(&t.RunnableTaskBase, runnableTaskApply[Result], runnableTaskDestroy[Result])
	return t
}

// Result returns the value written to the result slot. Only meaningful once
// the task has completed.
func (t *RunnableTask[Result]) Result() Result { return t.result.value }

// runnableTaskApply is the type-erased execution protocol shared by single
// and team execution:
//
//  1. every member invokes the payload once, with the shared result slot;
//  2. all members reach the team barrier, so the respawn flag cannot be
//     read while another member may still be writing it;
//  3. the rank-zero member alone inspects the flag and, when the task is not
//     respawning, releases the payload. The node itself cannot be destroyed
//     or reclaimed here: its dependents still have to be processed, and
//     reclamation is driven solely by the reference count.
func runnableTaskApply[Result any](self *TaskNode, member *TeamMember) {
	task := (*RunnableTask[Result])(unsafe.Pointer(self))

	task.payload(member, task.result.pointer())

	member.TeamBarrier()

	if member.Rank() == 0 && !task.RespawnFlag() {
		task.payload = nil
	}
}

// runnableTaskDestroy drops whatever the payload closure still holds. The
// rank-zero member has usually already released it; a respawning task that
// is abandoned before its next pass is finalized here instead.
func runnableTaskDestroy[Result any](self *TaskNode) {
	task := (*RunnableTask[Result])(unsafe.Pointer(self))
	task.payload = nil
}
