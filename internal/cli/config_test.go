package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledger/internal/config"
)

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("--format", "json", "config", "show")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Path     string `json:"path"`
			DataDir  string `json:"data_dir"`
			Language string `json:"language"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, filepath.Join(env.env["XDG_CONFIG_HOME"], config.AppName, config.FileName), resp.Data.Path)
	assert.Equal(t, env.dataDir, resp.Data.DataDir, "environment override is shown")
	assert.Equal(t, "en", resp.Data.Language)
}

func TestConfigShow_Text(t *testing.T) {
	env := newTestEnv(t)
	delete(env.env, config.EnvDataDir)

	out, err := env.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "data_dir")
	assert.Contains(t, out, "(not set)")
}

func TestConfigSetDataDir(t *testing.T) {
	env := newTestEnv(t)
	delete(env.env, config.EnvDataDir)
	dir := t.TempDir()

	_, err := env.run("config", "set-data-dir", dir)
	require.NoError(t, err)

	path := filepath.Join(env.env["XDG_CONFIG_HOME"], config.AppName, config.FileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), dir)

	out, err := env.run("items", "list")
	require.NoError(t, err, "store commands use the saved data dir")
	assert.Contains(t, out, "No items")
}

func TestConfig_InvalidFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"language": `), 0o600))

	_, err := env.run("--config", path, "config", "show")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, config.ErrConfigInvalid)
}
