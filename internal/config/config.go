// Package config holds runtime configuration for the meetcoach engine.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Detection groups the tunables of the detection engine. Everything not
// listed here is a compile-time constant owned by the layer that uses it.
type Detection struct {
	// IncludeHost lets host-role prosody samples through. By default the
	// engine only watches guests.
	IncludeHost bool `yaml:"include_host"`

	// GlobalDebounce is the minimum gap between any two alerts for the same
	// participant, regardless of type.
	GlobalDebounce time.Duration `yaml:"global_debounce"`

	// LowTensionTightenPct reduces the engagement blocking thresholds (in
	// percent, 0..100) when a participant is in a low-tension state, making
	// praise alerts more conservative.
	LowTensionTightenPct float64 `yaml:"low_tension_tighten_pct"`

	// Client-indecision detector.
	IndecisionEnabled       bool          `yaml:"indecision_enabled"`
	IndecisionCooldown      time.Duration `yaml:"indecision_cooldown"`
	IndecisionMinConfidence float64       `yaml:"indecision_min_confidence"`

	// Solution-understood detector.
	SolutionEnabled       bool          `yaml:"solution_enabled"`
	SolutionCooldown      time.Duration `yaml:"solution_cooldown"`
	SolutionMinConfidence float64       `yaml:"solution_min_confidence"`
	SolutionMinTextLen    int           `yaml:"solution_min_text_len"`
	SolutionContextWindow time.Duration `yaml:"solution_context_window"`

	// Meeting lifecycle.
	MeetingIdleTTL time.Duration `yaml:"meeting_idle_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// Config holds all configuration values.
type Config struct {
	// Server
	ListenAddr string `yaml:"listen_addr"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	Detection Detection `yaml:"detection"`
}

// Load reads configuration from environment variables, then overlays the YAML
// file named by MEETCOACH_CONFIG when present. The YAML file wins for
// whatever keys it sets.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr: getEnv("MEETCOACH_LISTEN_ADDR", ":8090"),
		LogFile:    getEnv("MEETCOACH_LOG_FILE", "/tmp/meetcoach.log"),
		LogLevel:   parseLogLevel(getEnv("MEETCOACH_LOG_LEVEL", "INFO")),
		Detection: Detection{
			IncludeHost:          getEnvBool("MEETCOACH_INCLUDE_HOST", false),
			GlobalDebounce:       getEnvDuration("MEETCOACH_GLOBAL_DEBOUNCE_MS", 2*time.Second),
			LowTensionTightenPct: getEnvFloat("MEETCOACH_LOW_TENSION_TIGHTEN_PCT", 20),

			IndecisionEnabled:       getEnvBool("MEETCOACH_INDECISION_ENABLED", true),
			IndecisionCooldown:      getEnvDuration("MEETCOACH_INDECISION_COOLDOWN_MS", 120*time.Second),
			IndecisionMinConfidence: getEnvFloat("MEETCOACH_INDECISION_MIN_CONFIDENCE", 0.5),

			SolutionEnabled:       getEnvBool("MEETCOACH_SOLUTION_ENABLED", true),
			SolutionCooldown:      getEnvDuration("MEETCOACH_SOLUTION_COOLDOWN_MS", 120*time.Second),
			SolutionMinConfidence: getEnvFloat("MEETCOACH_SOLUTION_MIN_CONFIDENCE", 0.7),
			SolutionMinTextLen:    getEnvInt("MEETCOACH_SOLUTION_MIN_TEXT_LEN", 40),
			SolutionContextWindow: getEnvDuration("MEETCOACH_SOLUTION_CONTEXT_WINDOW_MS", 90*time.Second),

			MeetingIdleTTL: getEnvDuration("MEETCOACH_MEETING_IDLE_TTL_MS", 2*time.Hour),
			SweepInterval:  getEnvDuration("MEETCOACH_SWEEP_INTERVAL_MS", 10*time.Minute),
		},
	}

	if path := os.Getenv("MEETCOACH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// getEnvDuration reads a millisecond count, matching how the upstream
// services express their timing knobs.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil || ms < 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
