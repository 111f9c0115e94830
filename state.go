package taskgraph

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// SchedulerState represents the lifecycle state of a scheduler.
//
// State Machine:
//
//	StateIdle (0) → StateRunning (1)        [New()]
//	StateRunning (1) → StateDraining (2)    [Shutdown()]
//	StateDraining (2) → StateTerminated (3) [shutdown complete]
//	StateTerminated (3) → (terminal)
//
// Transition Rules:
//   - Use TryTransition (CAS) for every forward edge
//   - There are no backward edges; a terminated scheduler stays terminated
type SchedulerState uint64

const (
	// StateIdle indicates the scheduler has been created but workers have
	// not started.
	StateIdle SchedulerState = iota
	// StateRunning indicates workers are dispatching ready tasks.
	StateRunning
	// StateDraining indicates shutdown has been requested and the scheduler
	// is waiting for in-flight work.
	StateDraining
	// StateTerminated indicates workers have stopped.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateDraining:
		return "Draining"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// schedState is a lock-free state machine with cache-line padding to prevent
// false sharing with neighboring fields.
type schedState struct {
	_ cpu.CacheLinePad
	v atomic.Uint64
	_ cpu.CacheLinePad
}

// Load returns the current state atomically.
func (s *schedState) Load() SchedulerState {
	return SchedulerState(s.v.Load())
}

// Store atomically stores a new state. Only valid for irreversible states;
// forward edges use TryTransition.
func (s *schedState) Store(state SchedulerState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was performed.
func (s *schedState) TryTransition(from, to SchedulerState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// CanAcceptWork reports whether new tasks may be submitted.
func (s *schedState) CanAcceptWork() bool {
	return s.Load() == StateRunning
}
