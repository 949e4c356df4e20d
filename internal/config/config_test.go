package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrorigo/pearls/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadReadsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "default_priority = 1\ncompact_threshold_days = 14\nuse_index = true\noutput_format = \"json\"\nauto_close_on_commit = false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.DefaultPriority)
	assert.Equal(t, 14, cfg.CompactThresholdDays)
	assert.True(t, cfg.UseIndex)
	assert.Equal(t, config.FormatJSON, cfg.OutputFormat)
	assert.False(t, cfg.AutoCloseOnCommit)
}

func TestEnvVarOverridesFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("compact_threshold_days = 14\n"), 0644))

	t.Setenv("PEARLS_COMPACT_THRESHOLD_DAYS", "60")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.CompactThresholdDays)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.Default()
	cfg.DefaultPriority = 0
	cfg.OutputFormat = config.FormatTable

	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
