// Package config loads and saves the ledger configuration file.
//
// The file is JSON with comments and trailing commas allowed (JSONC). A
// missing file is created with defaults on first load. Environment
// variables override file values; the environment is passed in explicitly
// so nothing here reads process-wide state behind the caller's back.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"github.com/tailscale/hujson"
	"golang.org/x/text/language"

	"github.com/roach88/ledger/internal/logger"
)

const (
	// AppName names the directory below the user config directory.
	AppName = "ledger"
	// FileName is the config file inside that directory.
	FileName = "config.jsonc"
)

// Environment variables that override file values.
const (
	EnvDataDir   = "LEDGER_DATA_DIR"
	EnvLanguage  = "LEDGER_LANGUAGE"
	EnvLogLevel  = "LEDGER_LOG_LEVEL"
	EnvLogFormat = "LEDGER_LOG_FORMAT"
)

var (
	ErrConfigInvalid  = errors.New("invalid config file")
	ErrDataDirNotSet  = errors.New("data directory is not set; run 'ledger config set-data-dir <dir>'")
	ErrInvalidValue   = errors.New("invalid config value")
	ErrNoConfigDir    = errors.New("cannot determine user config directory")
	ErrConfigNotSaved = errors.New("cannot save config file")
)

// Config holds all configuration options.
type Config struct {
	DataDir         string `json:"data_dir"`
	FileOpenCommand string `json:"file_open_command,omitempty"`
	Language        string `json:"language"`
	LogLevel        string `json:"log_level"`
	LogFormat       string `json:"log_format"`

	// Path is the file the config was loaded from (not serialized).
	Path string `json:"-"`
}

// Default returns the default configuration. The data directory is left
// empty: the user has to choose one.
func Default() Config {
	return Config{
		FileOpenCommand: defaultOpenCommand(),
		Language:        "en",
		LogLevel:        "warn",
		LogFormat:       "console",
	}
}

func defaultOpenCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return ""
	default:
		return "xdg-open"
	}
}

// DefaultPath returns <user config dir>/ledger/config.jsonc.
// XDG_CONFIG_HOME from env wins over the platform default.
func DefaultPath(env map[string]string) (string, error) {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, AppName, FileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoConfigDir, err)
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	Path string            // --config flag value; empty means DefaultPath
	Env  map[string]string // environment variables
}

// Load reads the config with the following precedence (highest wins):
// 1. Defaults
// 2. Config file (created with defaults if missing)
// 3. Environment variables
func Load(in LoadInput) (Config, error) {
	path := in.Path
	if path == "" {
		var err error
		if path, err = DefaultPath(in.Env); err != nil {
			return Config{}, err
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg.Path = path
		if err := cfg.Save(); err != nil {
			return Config{}, err
		}
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if cfg, err = parse(data, cfg); err != nil {
			return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
		}
	}
	cfg.Path = path

	cfg = applyEnv(cfg, in.Env)
	cfg.DataDir = expandHome(cfg.DataDir, in.Env)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parse decodes JSONC over base, so absent keys keep their base values.
func parse(data []byte, base Config) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&base); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return base, nil
}

func applyEnv(cfg Config, env map[string]string) Config {
	if v := env[EnvDataDir]; v != "" {
		cfg.DataDir = v
	}
	if v := env[EnvLanguage]; v != "" {
		cfg.Language = v
	}
	if v := env[EnvLogLevel]; v != "" {
		cfg.LogLevel = v
	}
	if v := env[EnvLogFormat]; v != "" {
		cfg.LogFormat = v
	}
	return cfg
}

func expandHome(path string, env map[string]string) string {
	home := env["HOME"]
	if home == "" || (path != "~" && !strings.HasPrefix(path, "~/")) {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks every field that has a fixed set of valid values.
// An empty DataDir is valid here; see RequireDataDir.
func (c Config) Validate() error {
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("%w: language %q: %w", ErrInvalidValue, c.Language, err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidValue, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log_format %q: must be console or json", ErrInvalidValue, c.LogFormat)
	}
	return nil
}

// RequireDataDir fails if no data directory is configured.
func (c Config) RequireDataDir() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return ErrDataDirNotSet
	}
	return nil
}

// LanguageTag returns the configured language. Validate has already
// rejected unparsable values; English is returned for those anyway.
func (c Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// LoggerConfig maps the logging fields onto a logger configuration.
func (c Config) LoggerConfig() logger.LogConfig {
	lc := logger.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	return lc
}

// Save writes the config to Path atomically, creating its directory.
// Readers never observe a partially written file.
func (c Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("%w: no path", ErrConfigNotSaved)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o750); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigNotSaved, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigNotSaved, err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(c.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigNotSaved, err)
	}
	return nil
}

// Environ converts os.Environ-style entries into a map.
func Environ(entries []string) map[string]string {
	env := make(map[string]string, len(entries))
	for _, e := range entries {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}
	return env
}

// MergeDotEnv adds the variables of a .env file to env. Variables already
// in env win, the way godotenv.Load leaves the process environment alone.
// A missing file is not an error.
func MergeDotEnv(env map[string]string, path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return env, nil
	}
	if err != nil {
		return env, fmt.Errorf("read %s: %w", path, err)
	}

	merged := make(map[string]string, len(env)+len(vars))
	for k, v := range vars {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	return merged, nil
}
