package taskgraph

import "errors"

var (
	// ErrPoolExhausted is returned by [TaskPool.Reserve] when the pool has no
	// free block budget. Exhaustion is an expected runtime condition for the
	// pool collaborator, unlike the node model's contract violations, which
	// panic.
	ErrPoolExhausted = errors.New("taskgraph: task pool exhausted")

	// ErrBlockTooLarge is returned by [TaskPool.Reserve] when the requested
	// allocation does not fit the pool's fixed block size.
	ErrBlockTooLarge = errors.New("taskgraph: allocation exceeds pool block size")

	// ErrSchedulerTerminated is returned when work is submitted to a
	// scheduler that has been shut down.
	ErrSchedulerTerminated = errors.New("taskgraph: scheduler terminated")
)
