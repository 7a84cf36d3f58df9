package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/config"
	"github.com/roach88/ledger/internal/logger"
	"github.com/roach88/ledger/internal/model"
	"github.com/roach88/ledger/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DataDir    string // overrides the configured data directory

	// Env is the environment the config is resolved against.
	Env map[string]string

	// Now returns the current time; the default period is the current year.
	Now func() time.Time

	// IDs generates identities for new items and templates.
	IDs model.IDGenerator

	// Config is loaded by the root command before any subcommand runs.
	Config config.Config

	logCloser io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ledger CLI.
func NewRootCommand(env map[string]string) *cobra.Command {
	return newRootCommand(&RootOptions{Env: env, Now: time.Now, IDs: model.UUIDv7Generator{}})
}

func newRootCommand(opts *RootOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "ledger - small-business bookkeeping",
		Long: `Record incoming and outgoing invoices, keep invoice templates and
summarize a year, quarter or month. Data lives in a single SQLite file
inside the configured data directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default <user config dir>/ledger/config.jsonc)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (overrides config)")

	cmd.AddCommand(NewItemsCommand(opts))
	cmd.AddCommand(NewTemplatesCommand(opts))
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// load reads the config and configures logging from it.
func (o *RootOptions) load() error {
	cfg, err := config.Load(config.LoadInput{Path: o.ConfigPath, Env: o.Env})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	o.Config = cfg

	lc := cfg.LoggerConfig()
	if o.Verbose {
		lc.Level = zerolog.LevelDebugValue
	}
	closer, err := logger.Setup(lc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	o.logCloser = closer
	return nil
}

// formatter returns an OutputFormatter writing to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the store in the configured data directory.
func (o *RootOptions) openStore(ctx context.Context) (*store.Store, error) {
	if err := o.Config.RequireDataDir(); err != nil {
		return nil, err
	}
	log := logger.WithComponent("cli")
	log.Debug().Str("data_dir", o.Config.DataDir).Msg("opening store")
	return store.Open(ctx, o.Config.DataDir)
}

// withStore opens the store, runs fn and closes the store again.
// Failures are reported through f.
func (o *RootOptions) withStore(cmd *cobra.Command, f *OutputFormatter, fn func(ctx context.Context, s *store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := o.openStore(ctx)
	if err != nil {
		return f.Fail("failed to open store", err)
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			log := logger.WithComponent("cli")
			log.Error().Err(closeErr).Msg("error closing store")
		}
	}()

	return fn(ctx, s)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
