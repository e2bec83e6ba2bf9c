package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, 1<<20, cfg.Run.NElem, "Wrong default run size")
	require.Equal(t, "pool", cfg.Run.Device, "Wrong default device")
	require.Equal(t, (int64)(42), cfg.Run.Seed, "Wrong default seed")
	require.Equal(t, 5, cfg.Bench.Repeat, "Wrong default repeat count")
	require.Nil(t, cfg.Simulate.Validate(), "Default simulation scenario must be valid")
}

func TestLoadNoPath(t *testing.T) {
	cfg, err := Load("")
	require.Nil(t, err, "Loading without a file failed")
	require.Equal(t, Default(), cfg, "No file must mean the defaults")
}

func TestLoadOverlay(t *testing.T) {
	raw := `
verbose = true

[run]
nelem = 4096
device = "pool"

[bench]
repeat = 2

[simulate]
dataset_mb = 2048.0
trials = 3

[simulate.store]
latency_ms = 10.0
`
	path := filepath.Join(t.TempDir(), "cloud-sort.toml")
	require.Nil(t, os.WriteFile(path, []byte(raw), 0644), "Couldn't write config")

	cfg, err := Load(path)
	require.Nil(t, err, "Load failed")

	require.True(t, cfg.Verbose, "File value not applied")
	require.Equal(t, 4096, cfg.Run.NElem, "File value not applied")
	require.Equal(t, 2, cfg.Bench.Repeat, "File value not applied")
	require.Equal(t, 2048.0, cfg.Simulate.DatasetMB, "File value not applied")
	require.Equal(t, 10.0, cfg.Simulate.Store.LatencyMS, "Nested file value not applied")

	// Everything the file does not mention keeps its default.
	require.Equal(t, (int64)(42), cfg.Run.Seed, "Default lost under overlay")
	require.Equal(t, 1<<20, cfg.Bench.NElem, "Default lost under overlay")
	require.Equal(t, 100.0, cfg.Simulate.Store.MeanThroughputMBps, "Nested default lost under overlay")
	require.Equal(t, 4, cfg.Simulate.MergeK, "Default lost under overlay")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NotNil(t, err, "Loaded a file that does not exist")
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.Nil(t, os.WriteFile(path, []byte("[run\nnelem = "), 0644), "Couldn't write config")

	_, err := Load(path)
	require.NotNil(t, err, "Loaded a file that does not parse")
}
