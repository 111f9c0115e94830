package taskgraph

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"
)

func TestAggregateConstruction(t *testing.T) {
	agg := NewAggregateTask(nil, 2, 3)

	if agg.Kind() != TaskAggregate {
		t.Errorf("Kind = %v, want Aggregate", agg.Kind())
	}
	if agg.Priority() != PriorityRegular {
		t.Errorf("Priority = %v, aggregates are always Regular", agg.Priority())
	}
	if agg.DependenceCount() != 3 {
		t.Errorf("DependenceCount = %d, want 3", agg.DependenceCount())
	}
	if agg.ReferenceCount() != 2 {
		t.Errorf("ReferenceCount = %d, want 2", agg.ReferenceCount())
	}
}

// The reported allocation size must cover the per-instance slot storage.
func TestAggregateAllocationSizeIncludesSlots(t *testing.T) {
	small := NewAggregateTask(nil, 1, 2)
	large := NewAggregateTask(nil, 1, 10)

	slot := int32(unsafe.Sizeof(atomic.Pointer[TaskNode]{}))
	if got, want := large.AllocationSize()-small.AllocationSize(), 8*slot; got != want {
		t.Errorf("Allocation size delta = %d, want %d", got, want)
	}
}

func TestAggregateSlotSingleWrite(t *testing.T) {
	agg := NewAggregateTask(nil, 1, 1)
	p := newTestNode(1)
	agg.SetDependence(0, p)

	if got := p.ReferenceCount(); got != 2 {
		t.Errorf("Predecessor count = %d after SetDependence, want 2", got)
	}
	if agg.Dependence(0) != p {
		t.Error("Slot does not hold the predecessor")
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic writing an occupied slot")
		}
	}()
	agg.SetDependence(0, newTestNode(1))
}

// Clearing all N slots, in any order and concurrently, must report ready
// exactly once.
func TestAggregateFanInExactlyOnce(t *testing.T) {
	const (
		deps       = 16
		iterations = 200
	)

	for iter := 0; iter < iterations; iter++ {
		agg := NewAggregateTask(nil, 1, deps)
		preds := make([]*TaskNode, deps)
		for i := range preds {
			preds[i] = newTestNode(1)
			agg.SetDependence(int32(i), preds[i])
		}

		order := rand.Perm(deps)
		var (
			wg    sync.WaitGroup
			ready atomic.Int32
		)
		for _, i := range order {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if agg.notifyDependenceComplete(preds[i]) {
					ready.Add(1)
				}
			}(i)
		}
		wg.Wait()

		if got := ready.Load(); got != 1 {
			t.Fatalf("iter %d: ready transition reported %d times, want 1", iter, got)
		}
		for i := int32(0); i < deps; i++ {
			if agg.Dependence(i) != nil {
				t.Fatalf("iter %d: slot %d not cleared", iter, i)
			}
		}
	}
}

func TestAggregateNotifyUnknownPredecessorPanics(t *testing.T) {
	agg := NewAggregateTask(nil, 1, 1)
	agg.SetDependence(0, newTestNode(1))

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for a non-dependence completion")
		}
	}()
	agg.notifyDependenceComplete(newTestNode(1))
}
