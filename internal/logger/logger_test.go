package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json", "")

	l.Info().Str("key", "2024-01-01_x").Msg("item saved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "item saved", entry["message"])
	assert.Equal(t, "2024-01-01_x", entry["key"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNew_ConsoleNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "console", "")

	l.Warn().Msg("store busy")

	out := buf.String()
	assert.Contains(t, out, "store busy")
	assert.NotContains(t, out, "\x1b[", "no ANSI colors when not writing to a terminal")
}

func TestSetup_FileOutput(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "ledger.log")
	closer, err := Setup(LogConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	componentLogger := WithComponent("worker")
	componentLogger.Debug().Msg("request done")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "worker", entry["component"])
	assert.Equal(t, "request done", entry["message"])
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup(LogConfig{Level: "loud", Output: "stderr"})
	assert.Error(t, err)
}

func TestSetup_LevelFilters(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "ledger.log")
	closer, err := Setup(LogConfig{Level: "error", Format: "json", Output: path})
	require.NoError(t, err)

	componentLogger := WithComponent("cli")
	componentLogger.Info().Msg("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
