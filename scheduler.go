package taskgraph

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Scheduler owns the task pool, the ready queue, and the worker dispatch
// loop, and exposes the spawn API used by application code.
type Scheduler struct {
	queue *ReadyQueue
	pool  *TaskPool
	exec  *executor
	state schedState
	log   *logiface.Logger[logiface.Event]

	// pending counts spawned nodes (runnables and aggregates) that have not
	// completed. idleCh is non-nil exactly while pending > 0 and is closed
	// when it returns to zero, releasing waiters.
	idleMu  sync.Mutex
	pending int64
	idleCh  chan struct{}
}

// New creates a scheduler and starts its workers.
func New(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		queue: NewReadyQueue(),
		log:   cfg.logger,
	}
	s.pool = NewTaskPool(cfg.poolBlockSize, cfg.poolCapacity, cfg.logger)
	s.exec = newExecutor(s, s.queue, cfg.workers, cfg.teamSize)
	if !s.state.TryTransition(StateIdle, StateRunning) {
		panic("taskgraph: scheduler started twice")
	}
	s.exec.start()
	s.log.Info().
		Int("workers", cfg.workers).
		Int("team_size", cfg.teamSize).
		Int64("pool_capacity", s.pool.capacity).
		Log("scheduler started")
	return s, nil
}

// State returns the scheduler's lifecycle state.
func (s *Scheduler) State() SchedulerState { return s.state.Load() }

// Pool returns the scheduler's task pool, for stats inspection.
func (s *Scheduler) Pool() *TaskPool { return s.pool }

// Queue returns the scheduler's ready queue.
func (s *Scheduler) Queue() *ReadyQueue { return s.queue }

// Wait blocks until every spawned task has completed, or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	for {
		s.idleMu.Lock()
		if s.pending == 0 {
			s.idleMu.Unlock()
			return nil
		}
		ch := s.idleCh
		s.idleMu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Shutdown drains in-flight work and stops the workers. If ctx expires
// while draining, still-queued tasks are abandoned: each worker finishes the
// payload it is currently executing, then exits, and the context error is
// returned. A payload that never returns blocks Shutdown regardless of ctx;
// cancellation is a payload-level concern.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	if !s.state.TryTransition(StateRunning, StateDraining) {
		return nil
	}
	err := s.Wait(ctx)
	s.exec.shutdown()
	s.state.Store(StateTerminated)
	s.log.Info().
		Err(err).
		Int("abandoned", s.queue.Len()).
		Log("scheduler terminated")
	return err
}

func (s *Scheduler) pendingAdd() {
	s.idleMu.Lock()
	if s.pending++; s.pending == 1 {
		s.idleCh = make(chan struct{})
	}
	s.idleMu.Unlock()
}

func (s *Scheduler) pendingDone() {
	s.idleMu.Lock()
	if s.pending--; s.pending == 0 {
		close(s.idleCh)
		s.idleCh = nil
	} else if s.pending < 0 {
		panic("taskgraph: pending task count below zero")
	}
	s.idleMu.Unlock()
}

func (s *Scheduler) enqueue(n *TaskNode) {
	s.queue.Push(n)
	s.exec.nudge()
}

// release drops one reference to n. The zero transition is the single
// authoritative reclamation signal: the payload is finalized (runnables
// only) and the node's block returns to the pool, here and nowhere else.
func (s *Scheduler) release(n *TaskNode) {
	if n.DecrementAndCheckReferenceCount() {
		if n.IsRunnable() {
			n.AsRunnable().invokeDestroy()
		}
		s.pool.Release(n)
	}
}

// complete finalizes a node that finished its work: drain the wait queue
// (waking each dependent exactly once), retire the node from the pending
// count, and drop the scheduler's active reference. A dependent is never
// made ready before its visitation here has run.
func (s *Scheduler) complete(n *TaskNode) {
	n.ConsumeWaitQueue(func(waiter *TaskNode) {
		s.notifyWaiter(n, waiter)
	})
	s.pendingDone()
	s.release(n)
}

// notifyWaiter processes one waiter of a completed producer. In both arms
// the waiter's keep-alive reference on the producer is released once the
// dependency has been processed. An aggregate is handed back to
// scheduleAggregate to attach to its next incomplete predecessor; the
// consume loop has already unlinked it, so re-pushing is safe here.
func (s *Scheduler) notifyWaiter(producer, waiter *TaskNode) {
	if waiter.IsAggregate() {
		agg := waiter.AsAggregate()
		agg.notifyDependenceComplete(producer)
		s.release(producer)
		s.scheduleAggregate(agg)
		return
	}
	r := waiter.AsRunnable()
	r.ClearPredecessor()
	s.release(producer)
	s.enqueue(waiter)
}

// scheduleAggregate attaches agg to one incomplete predecessor at a time.
// The intrusive next link means a node can wait on at most one producer, so
// the aggregate must never sit in two wait queues at once; instead it
// re-attaches to the next occupied slot each time the producer it was
// waiting on completes. A slot whose producer has already completed is
// cleared inline. Once every slot is clear the join has fired; aggregates
// carry no payload, so becoming ready is completing.
func (s *Scheduler) scheduleAggregate(agg *AggregateTask) {
	for i, n := int32(0), agg.DependenceCount(); i < n; i++ {
		p := agg.Dependence(i)
		if p == nil {
			continue
		}
		if p.TryAddWaiting(&agg.TaskNode) {
			return
		}
		// already complete; clear the slot ourselves
		agg.notifyDependenceComplete(p)
		s.release(p)
	}
	s.complete(&agg.TaskNode)
}

// resubmit re-enqueues a node whose execution pass requested respawn,
// clearing the flag for the next pass. A respawn predecessor set during
// execution is honored the same way as at spawn time.
func (s *Scheduler) resubmit(r *RunnableTaskBase) {
	r.SetRespawnFlag(false)
	if r.HasPredecessor() {
		p := r.Predecessor()
		if p.TryAddWaiting(&r.TaskNode) {
			return
		}
		r.ClearPredecessor()
		s.release(p)
	}
	s.enqueue(&r.TaskNode)
}

// submit wires an optional dependency and schedules r. If the dependency's
// wait queue is already consumed, the push race was lost to a concurrent
// completion; that is a normal outcome and r is scheduled directly.
func (s *Scheduler) submit(r *RunnableTaskBase, after Dependence) {
	if after != nil {
		p := after.taskNode()
		r.SetPredecessor(p)
		if p.TryAddWaiting(&r.TaskNode) {
			return
		}
		r.ClearPredecessor()
		s.release(p)
	}
	s.enqueue(&r.TaskNode)
}

// Dependence is anything a task can be made to wait on: a [Future] or a
// [Join].
type Dependence interface {
	taskNode() *TaskNode
}

// Spawn submits a payload for asynchronous execution and returns a handle to
// its eventual result. The returned future holds a counted reference on the
// node; callers release it with [Future.Release] once the result has been
// read.
func Spawn[Result any](s *Scheduler, payload PayloadFn[Result], opts ...SpawnOption) (*Future[Result], error) {
	cfg, err := resolveSpawnOptions(opts)
	if err != nil {
		return nil, err
	}
	if !s.state.CanAcceptWork() {
		return nil, ErrSchedulerTerminated
	}
	// initial count 2: the returned handle plus the active-in-scheduler
	// reference dropped on completion.
	task := NewRunnableTask[Result](cfg.kind, cfg.priority, s.queue, 2, payload)
	if err := s.pool.Reserve(task.AllocationSize()); err != nil {
		return nil, err
	}
	s.pendingAdd()
	f := &Future[Result]{task: task, sched: s}
	s.submit(&task.RunnableTaskBase, cfg.after)
	return f, nil
}

// WhenAll creates a join point that completes once every given dependence
// has completed, in any order. The same dependence may appear more than
// once; each occurrence takes its own slot. The returned join holds a
// counted reference; release it with [Join.Release].
func (s *Scheduler) WhenAll(deps ...Dependence) (*Join, error) {
	if !s.state.CanAcceptWork() {
		return nil, ErrSchedulerTerminated
	}
	agg := NewAggregateTask(s.queue, 2, int32(len(deps)))
	if err := s.pool.Reserve(agg.AllocationSize()); err != nil {
		return nil, err
	}
	s.pendingAdd()
	for i, d := range deps {
		agg.SetDependence(int32(i), d.taskNode())
	}
	s.scheduleAggregate(agg)
	return &Join{agg: agg, sched: s}, nil
}

// Future is the application-side handle to a spawned task's result.
type Future[Result any] struct {
	task     *RunnableTask[Result]
	sched    *Scheduler
	released atomic.Bool
}

func (f *Future[Result]) taskNode() *TaskNode { return &f.task.TaskNode }

// Done reports whether the task has completed. There is no blocking wait on
// a single future; use [Scheduler.Wait] or depend on the future from
// another task.
func (f *Future[Result]) Done() bool { return f.task.WaitQueueIsConsumed() }

// Get returns the task's result. Reading an incomplete or released future
// is a programmer error and panics.
func (f *Future[Result]) Get() Result {
	if f.released.Load() {
		panic("taskgraph: future read after release")
	}
	if !f.Done() {
		panic("taskgraph: future read before task completion")
	}
	return f.task.Result()
}

// Release drops the handle's reference on the node, allowing its block to
// return to the pool once the scheduler is also done with it. The future
// must not be used afterwards.
func (f *Future[Result]) Release() {
	if f.released.Swap(true) {
		panic("taskgraph: future released twice")
	}
	f.sched.release(&f.task.TaskNode)
}

// Join is the application-side handle to a [Scheduler.WhenAll] join point.
type Join struct {
	agg      *AggregateTask
	sched    *Scheduler
	released atomic.Bool
}

func (j *Join) taskNode() *TaskNode { return &j.agg.TaskNode }

// Done reports whether every dependence of the join has completed.
func (j *Join) Done() bool { return j.agg.WaitQueueIsConsumed() }

// Release drops the handle's reference on the join node. The join must not
// be used afterwards.
func (j *Join) Release() {
	if j.released.Swap(true) {
		panic("taskgraph: join released twice")
	}
	j.sched.release(&j.agg.TaskNode)
}
