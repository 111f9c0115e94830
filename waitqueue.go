package taskgraph

import "sync/atomic"

// waitQueue is the set of tasks blocked on one producer task's completion.
//
// It is an intrusive lock-free LIFO over the owning node's next pointers,
// with a distinguished poison node marking the "consumed" state. TryPush
// links in front of the current head via CAS, retrying on contention, and
// fails atomically if it observes the poison value. Consume installs the
// poison value with a single atomic swap and then walks the chain it
// captured. The swap is the linearization point: every push that won the
// race is on the captured chain and is visited exactly once, and every push
// that lost the race observes the poison value and fails rather than being
// silently dropped after visitation has started.
//
// Concurrency Model: MPSC-ish. Any number of producers may TryPush; exactly
// one caller may Consume, exactly once. Go's atomics provide the
// release/acquire pairing needed for the captured chain's link writes to be
// visible to the consumer.
type waitQueue struct {
	head atomic.Pointer[TaskNode]
}

// waitQueuePoison is the terminal value marking a consumed queue. It is
// never itself enqueued anywhere; only its address is meaningful.
var waitQueuePoison TaskNode

// tryPush adds n as a waiter. It fails iff the queue has been consumed.
//
// n must not be linked into any other wait queue.
func (q *waitQueue) tryPush(n *TaskNode) bool {
	for {
		head := q.head.Load()
		if head == &waitQueuePoison {
			return false
		}
		n.next = head
		if q.head.CompareAndSwap(head, n) {
			return true
		}
	}
}

// consume transitions the queue from open to consumed and visits every
// previously pushed waiter exactly once. A waiter's next link is cleared
// before visit runs, so visit may link the waiter into another wait queue.
// Consuming an already-consumed queue is a contract violation and panics.
func (q *waitQueue) consume(visit func(*TaskNode)) {
	n := q.head.Swap(&waitQueuePoison)
	if n == &waitQueuePoison {
		panic("taskgraph: wait queue consumed twice")
	}
	for n != nil {
		next := n.next
		n.next = nil
		visit(n)
		n = next
	}
}

// isConsumed reports whether consume has begun. Observational only.
func (q *waitQueue) isConsumed() bool {
	return q.head.Load() == &waitQueuePoison
}
