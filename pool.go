package taskgraph

import (
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"golang.org/x/sys/cpu"
)

const (
	// DefaultPoolBlockSize accommodates a runnable with a modest payload, or
	// an aggregate with a few dozen dependence slots.
	DefaultPoolBlockSize = 512

	// DefaultPoolCapacity is the default number of outstanding blocks.
	DefaultPoolCapacity = 1 << 16
)

// TaskPool enforces a fixed-block allocation budget for task nodes. Nodes
// themselves live on the Go heap; the pool preserves the semantics the node
// model requires of its allocator: a fixed block size every node must fit,
// a bounded number of outstanding blocks, and size-tracked reclamation via
// the uniform [AllocationSized] accessor, usable before the concrete node
// type is known.
//
// Reserve and Release are lock-free. The counters are padded apart since
// they are hammered from every worker.
type TaskPool struct {
	blockSize int32
	capacity  int64
	log       *logiface.Logger[logiface.Event]

	_              cpu.CacheLinePad
	outstanding    atomic.Int64
	_              cpu.CacheLinePad
	reservedBlocks atomic.Int64
	releasedBytes  atomic.Int64
}

// PoolStats is a snapshot of pool usage.
type PoolStats struct {
	// BlockSize is the fixed block size in bytes.
	BlockSize int32
	// Capacity is the maximum number of outstanding blocks.
	Capacity int64
	// Outstanding is the number of currently reserved blocks.
	Outstanding int64
	// ReservedBlocks is the cumulative number of successful reservations.
	ReservedBlocks int64
	// ReleasedBytes is the cumulative byte size of reclaimed allocations, as
	// reported by the objects' allocation-size tags.
	ReleasedBytes int64
}

// NewTaskPool creates a pool with the given block size and capacity.
// Non-positive arguments select the defaults.
func NewTaskPool(blockSize int32, capacity int64, log *logiface.Logger[logiface.Event]) *TaskPool {
	if blockSize <= 0 {
		blockSize = DefaultPoolBlockSize
	}
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}
	return &TaskPool{blockSize: blockSize, capacity: capacity, log: log}
}

// BlockSize returns the fixed block size in bytes.
func (p *TaskPool) BlockSize() int32 { return p.blockSize }

// Reserve claims one block for an allocation of the given byte size. It
// fails with [ErrBlockTooLarge] if the allocation cannot fit a block, and
// with [ErrPoolExhausted] if the pool is at capacity. Exhaustion is the
// caller's recoverable condition, not a contract violation.
func (p *TaskPool) Reserve(size int32) error {
	if size > p.blockSize {
		p.log.Warning().
			Int("size", int(size)).
			Int("block_size", int(p.blockSize)).
			Log("task does not fit pool block")
		return ErrBlockTooLarge
	}
	if n := p.outstanding.Add(1); n > p.capacity {
		p.outstanding.Add(-1)
		p.log.Warning().
			Int64("capacity", p.capacity).
			Log("task pool exhausted")
		return ErrPoolExhausted
	}
	p.reservedBlocks.Add(1)
	return nil
}

// Release returns obj's block to the pool, using the object's allocation
// size tag for accounting. Releasing more blocks than were reserved is a
// programmer error and panics.
func (p *TaskPool) Release(obj AllocationSized) {
	if p.outstanding.Add(-1) < 0 {
		panic("taskgraph: pool release without matching reserve")
	}
	p.releasedBytes.Add(int64(obj.AllocationSize()))
}

// Stats returns a racy snapshot of pool usage.
func (p *TaskPool) Stats() PoolStats {
	return PoolStats{
		BlockSize:      p.blockSize,
		Capacity:       p.capacity,
		Outstanding:    p.outstanding.Load(),
		ReservedBlocks: p.reservedBlocks.Load(),
		ReleasedBytes:  p.releasedBytes.Load(),
	}
}
