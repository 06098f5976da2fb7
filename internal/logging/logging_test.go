package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledIsNop(t *testing.T) {
	for _, path := range []string{"", Disabled} {
		logger, err := New(path, "debug")
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1))
	}
}

func TestWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tui.log")
	logger, err := New(path, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), `"msg":"shown"`)
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(filepath.Join(t.TempDir(), "x.log"), "chatty")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0))
	assert.False(t, logger.Core().Enabled(-1))
}
