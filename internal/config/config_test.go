package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Refs.All)
	require.True(t, cfg.Sort.Date)
	require.False(t, cfg.Status.Clean)
	require.True(t, cfg.Graph.Visible)
	require.False(t, cfg.Compact)
	require.True(t, cfg.Watch)
}

func TestLoadReadsYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", t.TempDir())

	cfgDir := filepath.Join(dir, "gitlanes")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	yaml := "refs:\n  all: false\nsort:\n  date: false\nstatus:\n  clean: true\ncompact: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.Refs.All)
	require.False(t, cfg.Sort.Date)
	require.True(t, cfg.Status.Clean)
	require.True(t, cfg.Compact)
	// Unset keys keep their defaults.
	require.True(t, cfg.Graph.Visible)
	require.True(t, cfg.Watch)
}

func TestSettingsConversion(t *testing.T) {
	cfg := defaultConfig()
	cfg.Refs.All = false
	cfg.Status.Clean = true

	s := cfg.Settings()
	require.False(t, s.RefsAll)
	require.True(t, s.SortDate)
	require.True(t, s.CleanStatus)
	require.True(t, s.GraphVisible)
	require.False(t, s.Compact)
}
