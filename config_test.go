package taskgraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	assert.Equal(t, DefaultConfig(), cfg)

	// missing file falls back to defaults
	cfg = LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(
		"workers: 3\nteam_size: 2\npool_block_size: 256\npool_capacity: 100\n",
	), 0o600))

	cfg := LoadConfig(path)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 2, cfg.TeamSize)
	assert.Equal(t, int32(256), cfg.PoolBlockSize)
	assert.Equal(t, int64(100), cfg.PoolCapacity)
}

func TestLoadConfigClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(
		"workers: -1\nteam_size: 0\npool_block_size: -5\npool_capacity: 0\n",
	), 0o600))

	cfg := LoadConfig(path)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 4, cfg.TeamSize)
	assert.Equal(t, int32(DefaultPoolBlockSize), cfg.PoolBlockSize)
	assert.Equal(t, int64(DefaultPoolCapacity), cfg.PoolCapacity)
}

func TestConfigOptions(t *testing.T) {
	opts, err := resolveOptions(DefaultConfig().Options())
	require.NoError(t, err)
	assert.Equal(t, 4, opts.teamSize)
	assert.Equal(t, int32(DefaultPoolBlockSize), opts.poolBlockSize)
	assert.Equal(t, int64(DefaultPoolCapacity), opts.poolCapacity)
}
