package taskgraph

import (
	"sync"
	"sync/atomic"
	"testing"
)

func newTestNode(initial int32) *TaskNode {
	n := &TaskNode{}
	initTaskNode(n, TaskSingle, PriorityRegular, nil, initial, 64)
	return n
}

func TestDecrementAndCheckReferenceCount(t *testing.T) {
	n := newTestNode(2)

	if n.DecrementAndCheckReferenceCount() {
		t.Error("Expected false at count 2 -> 1")
	}
	if !n.DecrementAndCheckReferenceCount() {
		t.Error("Expected true at count 1 -> 0")
	}
}

func TestDecrementBelowZeroPanics(t *testing.T) {
	n := newTestNode(1)
	n.DecrementAndCheckReferenceCount()

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on decrement of zero count")
		}
	}()
	n.DecrementAndCheckReferenceCount()
}

// Concurrent increments and decrements: exactly one decrement reports the
// zero transition iff the final count is zero, and never more than one.
func TestReferenceCountConcurrent(t *testing.T) {
	const (
		holders    = 64
		iterations = 200
	)

	for iter := 0; iter < iterations; iter++ {
		n := newTestNode(1)

		var wg sync.WaitGroup
		for i := 0; i < holders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n.IncrementReferenceCount()
			}()
		}
		wg.Wait()

		// holders+1 references outstanding; drop them all concurrently
		var zeroes atomic.Int32
		for i := 0; i < holders+1; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if n.DecrementAndCheckReferenceCount() {
					zeroes.Add(1)
				}
			}()
		}
		wg.Wait()

		if got := zeroes.Load(); got != 1 {
			t.Fatalf("Expected exactly 1 zero transition, got %d", got)
		}
		if got := n.ReferenceCount(); got != 0 {
			t.Fatalf("Expected final count 0, got %d", got)
		}
	}
}

func TestAllocationSizeFixedAtConstruction(t *testing.T) {
	n := newTestNode(1)
	if got := n.AllocationSize(); got != 64 {
		t.Errorf("Expected allocation size 64, got %d", got)
	}
}
