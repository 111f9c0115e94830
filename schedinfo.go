package taskgraph

// SchedulingInfoStorage attaches a queue-traits-defined value to a task node.
// It is pure storage: presence is guaranteed by composition, so the accessor
// performs no checks, and when Info is an empty type the storage occupies no
// space at all.
//
// The lifetime of the attached value equals the owning node's lifetime.
type SchedulingInfoStorage[Info any] struct {
	info Info
}

// SchedulingInfo returns a reference to the attached value.
func (s *SchedulingInfoStorage[Info]) SchedulingInfo() *Info {
	return &s.info
}
