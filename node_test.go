package taskgraph

import "testing"

func TestTaskKindClassification(t *testing.T) {
	for _, tc := range []struct {
		kind     TaskKind
		agg      bool
		runnable bool
		single   bool
		team     bool
	}{
		{TaskTeam, false, true, false, true},
		{TaskSingle, false, true, true, false},
		{TaskAggregate, true, false, false, false},
	} {
		n := &TaskNode{}
		initTaskNode(n, tc.kind, PriorityRegular, nil, 1, 32)
		if n.Kind() != tc.kind {
			t.Errorf("%v: Kind changed to %v", tc.kind, n.Kind())
		}
		if n.IsAggregate() != tc.agg || n.IsRunnable() != tc.runnable ||
			n.IsSingleRunnable() != tc.single || n.IsTeamRunnable() != tc.team {
			t.Errorf("%v: classification mismatch", tc.kind)
		}
	}
}

// The kind set at construction must survive every later operation.
func TestTaskKindImmutable(t *testing.T) {
	q := NewReadyQueue()
	task := NewRunnableTask[Empty](TaskSingle, PriorityLow, q, 3, func(*TeamMember, *Empty) {})
	n := &task.TaskNode

	n.SetPriority(PriorityHigh)
	n.IncrementReferenceCount()
	n.DecrementAndCheckReferenceCount()
	n.TryAddWaiting(newTestNode(1))
	n.ConsumeWaitQueue(func(*TaskNode) {})

	if n.Kind() != TaskSingle {
		t.Errorf("Kind mutated to %v", n.Kind())
	}
}

func TestDowncastMismatchPanics(t *testing.T) {
	agg := NewAggregateTask(nil, 1, 0)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic downcasting aggregate to runnable")
			}
		}()
		agg.TaskNode.AsRunnable()
	}()

	task := NewRunnableTask[Empty](TaskSingle, PriorityRegular, nil, 1, func(*TeamMember, *Empty) {})
	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic downcasting runnable to aggregate")
			}
		}()
		task.TaskNode.AsAggregate()
	}()
}

func TestDowncastRoundTrip(t *testing.T) {
	task := NewRunnableTask[int](TaskTeam, PriorityHigh, nil, 1, func(*TeamMember, *int) {})
	if got := task.TaskNode.AsRunnable(); got != &task.RunnableTaskBase {
		t.Error("AsRunnable did not return the enclosing runnable")
	}

	agg := NewAggregateTask(nil, 1, 2)
	if got := agg.TaskNode.AsAggregate(); got != agg {
		t.Error("AsAggregate did not return the enclosing aggregate")
	}
}

func TestSetPriorityWhileEnqueuedPanics(t *testing.T) {
	q := NewReadyQueue()
	task := NewRunnableTask[Empty](TaskSingle, PriorityRegular, q, 1, func(*TeamMember, *Empty) {})
	n := &task.TaskNode

	n.SetPriority(PriorityLow) // fine while not enqueued
	q.Push(n)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic mutating priority while enqueued")
			}
		}()
		n.SetPriority(PriorityHigh)
	}()

	popped, ok := q.Pop()
	if !ok || popped != n {
		t.Fatal("Pop did not return the pushed node")
	}
	n.SetPriority(PriorityHigh) // fine again after dequeue
	if n.Priority() != PriorityHigh {
		t.Errorf("Priority = %v, want High", n.Priority())
	}
}

func TestOwningQueueReference(t *testing.T) {
	q := NewReadyQueue()
	task := NewRunnableTask[Empty](TaskSingle, PriorityRegular, q, 1, func(*TeamMember, *Empty) {})
	if task.OwningQueue() != q {
		t.Error("OwningQueue does not match construction argument")
	}
}
