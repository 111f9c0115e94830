package taskgraph

import (
	"sync"
)

// TeamMember is the execution context handed to a payload: one worker's
// membership in the group executing a task. A single-runnable sees a team of
// size one. The member with rank zero is the designated member: it alone
// inspects the respawn flag and finalizes the payload.
type TeamMember struct {
	rank     int
	teamSize int
	barrier  *teamBarrier
	task     *RunnableTaskBase
	sched    *Scheduler
}

// Rank returns the member's index within the executing team. Rank zero is
// the designated member.
func (m *TeamMember) Rank() int { return m.rank }

// TeamSize returns the number of members executing the task.
func (m *TeamMember) TeamSize() int { return m.teamSize }

// Scheduler returns the scheduler executing the task, for spawning further
// work from inside a payload.
func (m *TeamMember) Scheduler() *Scheduler { return m.sched }

// TeamBarrier blocks until every member of the team has reached it. A
// single-member team returns immediately.
func (m *TeamMember) TeamBarrier() {
	if m.barrier != nil {
		m.barrier.await()
	}
}

// Respawn requests that the executing task not be finalized at the end of
// this pass, and instead be re-submitted for another one. The payload is
// left intact across passes.
func (m *TeamMember) Respawn() {
	m.task.SetRespawnFlag(true)
}

// RespawnAfter is [TeamMember.Respawn] with a dependency: the next pass does
// not become ready until d completes.
func (m *TeamMember) RespawnAfter(d Dependence) {
	m.task.SetPredecessor(d.taskNode())
	m.task.SetRespawnFlag(true)
}

// teamBarrier is a reusable cyclic barrier for the fixed set of members
// executing one task. It also provides the happens-before edge between the
// members' payload writes (the respawn flag included) and the rank-zero
// member's post-barrier reads.
type teamBarrier struct {
	mu      sync.Mutex
	cond    sync.Cond
	parties int
	waiting int
	phase   uint64
}

func newTeamBarrier(parties int) *teamBarrier {
	b := &teamBarrier{parties: parties}
	b.cond.L = &b.mu
	return b
}

func (b *teamBarrier) await() {
	b.mu.Lock()
	if b.waiting++; b.waiting == b.parties {
		b.waiting = 0
		b.phase++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	phase := b.phase
	for phase == b.phase {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// executor owns the worker goroutines that pull ready tasks from the queue
// and drive the execution protocol.
type executor struct {
	queue    *ReadyQueue
	sched    *Scheduler
	workers  int
	teamSize int

	// wake nudges one idle worker after a push; a worker that pops a task
	// re-nudges if the queue still has work, so no wakeup is lost.
	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

func newExecutor(sched *Scheduler, queue *ReadyQueue, workers, teamSize int) *executor {
	return &executor{
		queue:    queue,
		sched:    sched,
		workers:  workers,
		teamSize: teamSize,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

func (e *executor) start() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.run(i)
	}
}

func (e *executor) nudge() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *executor) shutdown() {
	close(e.stop)
	e.wg.Wait()
}

// run is one worker's dispatch loop.
func (e *executor) run(id int) {
	defer e.wg.Done()
	log := e.sched.log
	log.Debug().Int("worker", id).Log("worker started")
	defer log.Debug().Int("worker", id).Log("worker stopped")
	for {
		select {
		case <-e.stop:
			// abandon anything still queued
			return
		default:
		}
		node, ok := e.queue.Pop()
		if !ok {
			select {
			case <-e.wake:
				continue
			case <-e.stop:
				return
			}
		}
		if e.queue.Len() > 0 {
			e.nudge()
		}
		e.execute(node)
	}
}

// execute runs one pass of a runnable node and routes it to respawn or
// completion. The respawn flag is settled by the time the rank-zero Run call
// returns: every team member has passed the barrier.
func (e *executor) execute(n *TaskNode) {
	r := n.AsRunnable()

	if n.IsTeamRunnable() && e.teamSize > 1 {
		barrier := newTeamBarrier(e.teamSize)
		var wg sync.WaitGroup
		for rank := 1; rank < e.teamSize; rank++ {
			wg.Add(1)
			go func(rank int) {
				defer wg.Done()
				r.Run(&TeamMember{rank: rank, teamSize: e.teamSize, barrier: barrier, task: r, sched: e.sched})
			}(rank)
		}
		r.Run(&TeamMember{rank: 0, teamSize: e.teamSize, barrier: barrier, task: r, sched: e.sched})
		wg.Wait()
	} else {
		r.Run(&TeamMember{rank: 0, teamSize: 1, task: r, sched: e.sched})
	}

	if r.RespawnFlag() {
		e.sched.resubmit(r)
	} else {
		e.sched.complete(n)
	}
}
