package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server: http://viewport.local:9000/
storage: LOCAL
max_visible_lines: 8
fade: 250ms
history_limit: 20
`)
	t.Setenv("COMPAS_TUI_MAX_VISIBLE_LINES", "3")
	t.Setenv("COMPAS_TUI_FADE", "900")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://viewport.local:9000", cfg.Server)
	assert.Equal(t, StorageLocal, cfg.Storage)
	assert.Equal(t, 3, cfg.MaxVisibleLines)
	assert.Equal(t, 900*time.Millisecond, cfg.Fade)
	assert.Equal(t, 20, cfg.HistoryLimit)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("COMPAS_TUI_MAX_VISIBLE_LINES", "many")
	t.Setenv("COMPAS_TUI_ALT_SCREEN", "perhaps")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxVisibleLines)
	assert.True(t, cfg.AltScreen)
}

func TestNormalizeClamps(t *testing.T) {
	cfg := Config{
		MaxVisibleLines: 0,
		RequestTimeout:  time.Hour,
		FrameInterval:   time.Millisecond,
		Fade:            -time.Second,
		HistoryLimit:    -4,
		Storage:         "ftp",
		LogLevel:        "LOUD",
	}
	cfg.Normalize()
	assert.Equal(t, 1, cfg.MaxVisibleLines)
	assert.Equal(t, 5*time.Minute, cfg.RequestTimeout)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval)
	assert.Zero(t, cfg.Fade)
	assert.Zero(t, cfg.HistoryLimit)
	assert.Equal(t, StorageRemote, cfg.Storage)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestFlagsOverrideEverything(t *testing.T) {
	t.Setenv("COMPAS_TUI_SERVER", "http://from-env:1")
	cfg, err := Load(writeConfig(t, "server: http://from-file:1\nmax_visible_lines: 9\n"))
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--server", "http://from-flag:1", "--storage=local", "--fade", "1s"}))
	require.NoError(t, cfg.ApplyFlags(fs))

	assert.Equal(t, "http://from-flag:1", cfg.Server)
	assert.Equal(t, StorageLocal, cfg.Storage)
	assert.Equal(t, time.Second, cfg.Fade)
	assert.Equal(t, 9, cfg.MaxVisibleLines, "unset flags keep file values")
}
