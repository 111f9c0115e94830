package taskgraph

import "sync/atomic"

// AllocationSized is implemented by every pool-managed object. The reported
// size is fixed at construction and must be recoverable without knowing the
// concrete type, so the pool can account for a reclaimed block generically.
type AllocationSized interface {
	AllocationSize() int32
}

// allocationSizedBase tags an object with the byte size of its full concrete
// allocation. It must be the leading composition of every pool-managed type;
// see the layout note on [TaskNode].
type allocationSizedBase struct {
	allocSize int32
}

// AllocationSize returns the byte size fixed at construction.
func (b *allocationSizedBase) AllocationSize() int32 { return b.allocSize }

// referenceCountedBase carries an atomic reference count. Reaching zero is a
// one-time event that triggers destruction and pool release; no other path
// may free or reuse the owning object.
type referenceCountedBase struct {
	refCount atomic.Int32
}

// IncrementReferenceCount is lock-free and may be called concurrently by any
// number of holders.
func (b *referenceCountedBase) IncrementReferenceCount() {
	b.refCount.Add(1)
}

// DecrementAndCheckReferenceCount decrements the reference count and returns
// true exactly once, when the count transitions from 1 to 0. Decrementing a
// count that is already zero or negative is a use-after-free-class bug in
// the caller and panics.
func (b *referenceCountedBase) DecrementAndCheckReferenceCount() bool {
	old := b.refCount.Add(-1) + 1
	if old <= 0 {
		panic("taskgraph: reference count decremented below zero")
	}
	return old == 1
}

// ReferenceCount returns the current count. Inherently racy; observational
// use only.
func (b *referenceCountedBase) ReferenceCount() int32 {
	return b.refCount.Load()
}
