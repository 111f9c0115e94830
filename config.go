package taskgraph

import (
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors the scheduler section of a YAML config file.
type Config struct {
	Workers       int   `yaml:"workers"`         // GOMAXPROCS when 0
	TeamSize      int   `yaml:"team_size"`       // 4 (by default)
	PoolBlockSize int32 `yaml:"pool_block_size"` // 512 (by default)
	PoolCapacity  int64 `yaml:"pool_capacity"`   // 65536 (by default)
}

// DefaultConfig returns the defaults used when no file is given.
func DefaultConfig() Config {
	return Config{
		TeamSize:      4,
		PoolBlockSize: DefaultPoolBlockSize,
		PoolCapacity:  DefaultPoolCapacity,
	}
}

// LoadConfig reads YAML and overrides defaults; a missing or unreadable file
// yields defaults only.
func LoadConfig(path string) Config {
	cfg := DefaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	// sanity clamps
	if cfg.Workers < 0 {
		cfg.Workers = 0
	}
	if cfg.TeamSize <= 0 {
		cfg.TeamSize = 4
	}
	if cfg.PoolBlockSize <= 0 {
		cfg.PoolBlockSize = DefaultPoolBlockSize
	}
	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = DefaultPoolCapacity
	}

	return cfg
}

// Options converts the config into scheduler options.
func (c Config) Options() []Option {
	opts := []Option{
		WithTeamSize(c.TeamSize),
		WithPoolBlockSize(c.PoolBlockSize),
		WithPoolCapacity(c.PoolCapacity),
	}
	if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}
	return opts
}
