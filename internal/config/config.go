// Package config resolves runtime settings. Precedence, highest first:
// command-line flags, COMPAS_TUI_* environment variables, the YAML config
// file, built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageRemote = "remote"
	StorageLocal  = "local"

	envPrefix = "COMPAS_TUI_"
)

type Config struct {
	Server          string        `yaml:"server"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	Storage         string        `yaml:"storage"`
	ProjectDir      string        `yaml:"project_dir"`
	SeedProjects    bool          `yaml:"seed_projects"`
	MaxVisibleLines int           `yaml:"max_visible_lines"`
	Fade            time.Duration `yaml:"fade"`
	FrameInterval   time.Duration `yaml:"frame_interval"`
	HistoryPath     string        `yaml:"history_path"`
	HistoryLimit    int           `yaml:"history_limit"`
	LogPath         string        `yaml:"log_path"`
	LogLevel        string        `yaml:"log_level"`
	AltScreen       bool          `yaml:"alt_screen"`
}

func Default() Config {
	return Config{
		Server:          "http://127.0.0.1:8000",
		RequestTimeout:  30 * time.Second,
		Storage:         StorageRemote,
		ProjectDir:      "projects",
		SeedProjects:    true,
		MaxVisibleLines: 5,
		Fade:            500 * time.Millisecond,
		FrameInterval:   100 * time.Millisecond,
		HistoryPath:     filepath.Join(cacheDir(), "history.db"),
		HistoryLimit:    500,
		LogPath:         filepath.Join(cacheDir(), "compas-tui.log"),
		LogLevel:        "info",
		AltScreen:       true,
	}
}

// DefaultPath is where Load looks when no --config is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "compas-tui", "config.yaml")
}

func cacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "compas-tui")
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides fields from COMPAS_TUI_* variables. Unparseable values
// are ignored.
func (c *Config) ApplyEnv() {
	c.Server = envOr(envPrefix+"SERVER", c.Server)
	c.RequestTimeout = envOrDuration(envPrefix+"REQUEST_TIMEOUT", c.RequestTimeout)
	c.Storage = envOr(envPrefix+"STORAGE", c.Storage)
	c.ProjectDir = envOr(envPrefix+"PROJECT_DIR", c.ProjectDir)
	c.SeedProjects = envOrBool(envPrefix+"SEED_PROJECTS", c.SeedProjects)
	c.MaxVisibleLines = envOrInt(envPrefix+"MAX_VISIBLE_LINES", c.MaxVisibleLines)
	c.Fade = envOrDuration(envPrefix+"FADE", c.Fade)
	c.FrameInterval = envOrDuration(envPrefix+"FRAME_INTERVAL", c.FrameInterval)
	c.HistoryPath = envOr(envPrefix+"HISTORY_PATH", c.HistoryPath)
	c.HistoryLimit = envOrInt(envPrefix+"HISTORY_LIMIT", c.HistoryLimit)
	c.LogPath = envOr(envPrefix+"LOG_PATH", c.LogPath)
	c.LogLevel = envOr(envPrefix+"LOG_LEVEL", c.LogLevel)
	c.AltScreen = envOrBool(envPrefix+"ALT_SCREEN", c.AltScreen)
}

// Normalize clamps numeric settings and canonicalizes enums.
func (c *Config) Normalize() {
	c.Server = strings.TrimRight(strings.TrimSpace(c.Server), "/")
	if c.Server == "" {
		c.Server = Default().Server
	}
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	if c.Storage != StorageLocal {
		c.Storage = StorageRemote
	}
	c.RequestTimeout = clampDuration(c.RequestTimeout, time.Second, 5*time.Minute)
	c.MaxVisibleLines = clampInt(c.MaxVisibleLines, 1, 50)
	c.Fade = clampDuration(c.Fade, 0, 5*time.Second)
	c.FrameInterval = clampDuration(c.FrameInterval, 16*time.Millisecond, time.Second)
	c.HistoryLimit = clampInt(c.HistoryLimit, 0, 10000)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envOrDuration accepts Go durations ("750ms") or bare milliseconds.
func envOrDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampDuration(value, min, max time.Duration) time.Duration {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
