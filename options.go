// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package taskgraph

import (
	"errors"
	"runtime"

	"github.com/joeycumines/logiface"
)

// schedulerOptions holds configuration options for Scheduler creation.
type schedulerOptions struct {
	workers       int
	teamSize      int
	poolBlockSize int32
	poolCapacity  int64
	logger        *logiface.Logger[logiface.Event]
}

// --- Scheduler Options ---

// Option configures a Scheduler instance.
type Option interface {
	applyScheduler(*schedulerOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*schedulerOptions) error
}

func (o *optionImpl) applyScheduler(opts *schedulerOptions) error {
	return o.applyFunc(opts)
}

// WithWorkers sets the number of worker goroutines dispatching ready tasks.
// Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if n <= 0 {
			return errors.New("taskgraph: workers must be positive")
		}
		opts.workers = n
		return nil
	}}
}

// WithTeamSize sets the number of cooperating members executing each
// team-runnable. Defaults to 4. A team size of 1 makes team tasks
// indistinguishable from single tasks.
func WithTeamSize(n int) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if n <= 0 {
			return errors.New("taskgraph: team size must be positive")
		}
		opts.teamSize = n
		return nil
	}}
}

// WithPoolBlockSize sets the task pool's fixed block size in bytes. Every
// spawned node, including an aggregate's inline slot storage, must fit one
// block.
func WithPoolBlockSize(n int32) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if n <= 0 {
			return errors.New("taskgraph: pool block size must be positive")
		}
		opts.poolBlockSize = n
		return nil
	}}
}

// WithPoolCapacity sets the maximum number of outstanding pool blocks.
func WithPoolCapacity(n int64) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		if n <= 0 {
			return errors.New("taskgraph: pool capacity must be positive")
		}
		opts.poolCapacity = n
		return nil
	}}
}

// WithLogger attaches a structured logger for scheduler lifecycle and pool
// pressure events. A nil logger disables logging (the default).
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *schedulerOptions) error {
		opts.logger = logger
		return nil
	}}
}

// resolveOptions applies Option instances to schedulerOptions.
func resolveOptions(opts []Option) (*schedulerOptions, error) {
	cfg := &schedulerOptions{
		workers:  runtime.GOMAXPROCS(0),
		teamSize: 4,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyScheduler(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// --- Spawn Options ---

// spawnConfig holds per-spawn configuration.
type spawnConfig struct {
	kind     TaskKind
	priority Priority
	after    Dependence
}

// SpawnOption configures a single Spawn call.
type SpawnOption interface {
	applySpawn(*spawnConfig) error
}

// spawnOptionImpl implements SpawnOption.
type spawnOptionImpl struct {
	applyFunc func(*spawnConfig) error
}

func (o *spawnOptionImpl) applySpawn(cfg *spawnConfig) error {
	return o.applyFunc(cfg)
}

// WithPriority sets the spawned task's queue priority.
func WithPriority(p Priority) SpawnOption {
	return &spawnOptionImpl{func(cfg *spawnConfig) error {
		if p < PriorityHigh || p > PriorityLow {
			return errors.New("taskgraph: invalid priority")
		}
		cfg.priority = p
		return nil
	}}
}

// AsTeamTask marks the spawned task for execution by a cooperating worker
// team rather than a single worker.
func AsTeamTask() SpawnOption {
	return &spawnOptionImpl{func(cfg *spawnConfig) error {
		cfg.kind = TaskTeam
		return nil
	}}
}

// After makes the spawned task wait for d before becoming ready.
func After(d Dependence) SpawnOption {
	return &spawnOptionImpl{func(cfg *spawnConfig) error {
		if d == nil {
			return errors.New("taskgraph: nil dependence")
		}
		cfg.after = d
		return nil
	}}
}

// resolveSpawnOptions applies SpawnOption instances to a spawnConfig.
func resolveSpawnOptions(opts []SpawnOption) (*spawnConfig, error) {
	cfg := &spawnConfig{
		kind:     TaskSingle,
		priority: PriorityRegular,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applySpawn(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
