// Package taskgraph provides an in-process task-graph scheduler: reference
// counted, pool-budgeted task nodes that may depend on other tasks, join
// points with per-instance fan-in ("aggregates"), and execution by either a
// single worker or a cooperating team of workers.
//
// # Architecture
//
// The node model is the core of the package. A [TaskNode] composes an
// allocation-size tag (so the pool can reclaim a block before the concrete
// type is known), an atomic reference count (the single authoritative
// reclamation signal), and a lock-free wait queue of dependents. Concrete
// nodes are [RunnableTask] (a user payload plus an optional result slot,
// dispatched through a type-erased apply function) and [AggregateTask]
// (a payload-free join node that becomes ready once all of its registered
// predecessors have completed).
//
// Around the node model sit the collaborators a running system needs: a
// budget-enforcing [TaskPool], a priority-ordered [ReadyQueue], and a
// [Scheduler] that owns the worker dispatch loop and the public spawn API.
//
// # Thread Safety
//
// The wait queue and the reference count are the only node fields mutated
// concurrently by uncoordinated callers; both are lock-free. All other node
// fields are written at most once under a single-writer discipline and are
// read-only afterwards, or are owned exclusively by the worker (or team)
// currently executing the node.
//
// Contract violations - decrementing a zero reference count, downcasting a
// node to the wrong kind, assigning a predecessor twice, mutating priority
// while enqueued, consuming a wait queue twice - are programmer errors and
// panic. Losing a push race against a concurrent wait-queue consume is a
// normal outcome reported as a boolean, not an error.
//
// # Execution Model
//
// Workers pull ready runnables from the queue. A single-runnable executes on
// one worker; a team-runnable executes on a gang of workers that synchronize
// at a barrier after the payload call, before the rank-zero member alone
// inspects the respawn flag and, when the task is not respawning, finalizes
// the payload exactly once. A respawning task is re-submitted for another
// execution pass instead of being finalized.
//
// # Usage
//
//	s, err := taskgraph.New(taskgraph.WithWorkers(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Shutdown(context.Background())
//
//	a, _ := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) { *out = 1 })
//	b, _ := taskgraph.Spawn(s, func(m *taskgraph.TeamMember, out *int) { *out = 2 },
//	    taskgraph.After(a))
//
//	if err := s.Wait(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(a.Get() + b.Get())
package taskgraph
