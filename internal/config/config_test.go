package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.ListenAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.Detection.IncludeHost)
	assert.Equal(t, 2*time.Second, cfg.Detection.GlobalDebounce)
	assert.Equal(t, 20.0, cfg.Detection.LowTensionTightenPct)
	assert.True(t, cfg.Detection.IndecisionEnabled)
	assert.Equal(t, 120*time.Second, cfg.Detection.SolutionCooldown)
	assert.Equal(t, 40, cfg.Detection.SolutionMinTextLen)
	assert.Equal(t, 90*time.Second, cfg.Detection.SolutionContextWindow)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MEETCOACH_LISTEN_ADDR", ":9999")
	t.Setenv("MEETCOACH_LOG_LEVEL", "debug")
	t.Setenv("MEETCOACH_INCLUDE_HOST", "true")
	t.Setenv("MEETCOACH_GLOBAL_DEBOUNCE_MS", "500")
	t.Setenv("MEETCOACH_SOLUTION_COOLDOWN_MS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Detection.IncludeHost)
	assert.Equal(t, 500*time.Millisecond, cfg.Detection.GlobalDebounce)
	assert.Equal(t, time.Duration(0), cfg.Detection.SolutionCooldown)
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("MEETCOACH_GLOBAL_DEBOUNCE_MS", "not-a-number")
	t.Setenv("MEETCOACH_LOW_TENSION_TIGHTEN_PCT", "abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Detection.GlobalDebounce)
	assert.Equal(t, 20.0, cfg.Detection.LowTensionTightenPct)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meetcoach.yaml")
	data := []byte("listen_addr: \":7000\"\ndetection:\n  include_host: true\n  solution_min_text_len: 60\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("MEETCOACH_CONFIG", path)
	t.Setenv("MEETCOACH_LISTEN_ADDR", ":9999") // the file wins

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.True(t, cfg.Detection.IncludeHost)
	assert.Equal(t, 60, cfg.Detection.SolutionMinTextLen)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("MEETCOACH_CONFIG", "/nonexistent/meetcoach.yaml")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), "level %q", tt.in)
	}
}
