package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg, err := Load(LoadInput{Path: path})
	require.NoError(t, err)

	want := Default()
	want.Path = path
	assert.Equal(t, want, cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err, "defaults are written on first load")
	assert.Contains(t, string(data), `"language": "en"`)

	again, err := Load(LoadInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_JSONCWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, `{
	// where the ledger database lives
	"data_dir": "/srv/ledger",
	"language": "de", /* German notifications */
	"log_level": "debug",
}`)

	cfg, err := Load(LoadInput{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "/srv/ledger", cfg.DataDir)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat, "absent keys keep defaults")
	assert.Equal(t, language.German, cfg.LanguageTag())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, `{"data_dir": "/from/file", "language": "en"}`)

	cfg, err := Load(LoadInput{
		Path: path,
		Env: map[string]string{
			EnvDataDir:   "~/books",
			EnvLanguage:  "de",
			EnvLogFormat: "json",
			"HOME":       "/home/jane",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/home/jane/books", cfg.DataDir, "tilde is expanded")
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_DefaultPathFromXDG(t *testing.T) {
	xdg := t.TempDir()

	cfg, err := Load(LoadInput{Env: map[string]string{"XDG_CONFIG_HOME": xdg}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, AppName, FileName), cfg.Path)
	assert.FileExists(t, cfg.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"syntax", `{"data_dir": `, ErrConfigInvalid},
		{"unknown key", `{"data_folder": "/x"}`, ErrConfigInvalid},
		{"bad language", `{"language": "!!"}`, ErrInvalidValue},
		{"bad level", `{"log_level": "loud"}`, ErrInvalidValue},
		{"bad format", `{"log_format": "xml"}`, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.content)

			_, err := Load(LoadInput{Path: path})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := Default()
	cfg.Path = path
	cfg.DataDir = "/data"
	cfg.FileOpenCommand = "evince"
	require.NoError(t, cfg.Save())

	loaded, err := Load(LoadInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_SaveWithoutPath(t *testing.T) {
	require.ErrorIs(t, Default().Save(), ErrConfigNotSaved)
}

func TestConfig_RequireDataDir(t *testing.T) {
	cfg := Default()
	require.ErrorIs(t, cfg.RequireDataDir(), ErrDataDirNotSet)

	cfg.DataDir = "/data"
	require.NoError(t, cfg.RequireDataDir())
}

func TestConfig_LoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"

	lc := cfg.LoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestEnviron(t *testing.T) {
	env := Environ([]string{"A=1", "B=x=y", "broken"})
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, env)
}

func TestMergeDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, path, "LEDGER_LANGUAGE=de\nLEDGER_DATA_DIR=/dotenv\n")

	env, err := MergeDotEnv(map[string]string{EnvDataDir: "/process"}, path)
	require.NoError(t, err)
	assert.Equal(t, "de", env[EnvLanguage])
	assert.Equal(t, "/process", env[EnvDataDir], "process environment wins")

	env, err = MergeDotEnv(map[string]string{"A": "1"}, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1"}, env)
}
