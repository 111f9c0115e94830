package taskgraph

import (
	"testing"
	"unsafe"
)

// The checked downcasts and the pool's generic reclamation depend on the
// leading-field layout: a *TaskNode must alias the start of every concrete
// task allocation, the way the allocation size tag leads TaskNode itself.
func TestLeadingFieldLayout(t *testing.T) {
	if off := unsafe.Offsetof(TaskNode{}.allocationSizedBase); off != 0 {
		t.Errorf("allocationSizedBase offset = %d, want 0", off)
	}
	if off := unsafe.Offsetof(RunnableTaskBase{}.TaskNode); off != 0 {
		t.Errorf("RunnableTaskBase.TaskNode offset = %d, want 0", off)
	}
	if off := unsafe.Offsetof(RunnableTask[int]{}.RunnableTaskBase); off != 0 {
		t.Errorf("RunnableTask.RunnableTaskBase offset = %d, want 0", off)
	}
	if off := unsafe.Offsetof(RunnableTask[Empty]{}.RunnableTaskBase); off != 0 {
		t.Errorf("RunnableTask[Empty].RunnableTaskBase offset = %d, want 0", off)
	}
	if off := unsafe.Offsetof(AggregateTask{}.TaskNode); off != 0 {
		t.Errorf("AggregateTask.TaskNode offset = %d, want 0", off)
	}
}

// An empty scheduling info attachment must occupy no space, and an empty
// result slot must not grow the runnable.
func TestZeroSizeAttachments(t *testing.T) {
	if size := unsafe.Sizeof(SchedulingInfoStorage[struct{}]{}); size != 0 {
		t.Errorf("empty SchedulingInfoStorage size = %d, want 0", size)
	}
	if size := unsafe.Sizeof(resultStorage[Empty]{}); size != 0 {
		t.Errorf("empty resultStorage size = %d, want 0", size)
	}
}

func TestSchedulingInfoAccessor(t *testing.T) {
	var s SchedulingInfoStorage[int]
	*s.SchedulingInfo() = 7
	if got := *s.SchedulingInfo(); got != 7 {
		t.Errorf("SchedulingInfo = %d, want 7", got)
	}

	task := NewRunnableTask[Empty](TaskSingle, PriorityRegular, nil, 1, func(*TeamMember, *Empty) {})
	info := task.SchedulingInfo()
	if info.EnqueueSeq() != 0 {
		t.Error("fresh node has a non-zero enqueue seq")
	}
}
