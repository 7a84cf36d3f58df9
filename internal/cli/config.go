package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/config"
)

// configView is the payload of config show.
type configView struct {
	Path string `json:"path"`
	config.Config
}

func (v configView) WriteText(w io.Writer) error {
	dataDir := v.DataDir
	if dataDir == "" {
		dataDir = "(not set)"
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "config file\t%s\n", v.Path)
	fmt.Fprintf(tw, "data_dir\t%s\n", dataDir)
	fmt.Fprintf(tw, "file_open_command\t%s\n", v.FileOpenCommand)
	fmt.Fprintf(tw, "language\t%s\n", v.Language)
	fmt.Fprintf(tw, "log_level\t%s\n", v.LogLevel)
	fmt.Fprintf(tw, "log_format\t%s\n", v.LogFormat)
	return tw.Flush()
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after the config file, environment variables
and the --data-dir flag have been applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.formatter(cmd).Success(configView{Path: opts.Config.Path, Config: opts.Config})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-data-dir <dir>",
		Short: "Set the data directory in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return f.Fail("invalid data directory", err)
			}

			// Reload so environment overrides are not written to the file.
			cfg, err := config.Load(config.LoadInput{Path: opts.Config.Path})
			if err != nil {
				return f.Fail("failed to load config", err)
			}
			cfg.DataDir = dir
			if err := cfg.Save(); err != nil {
				return f.Fail("failed to save config", err)
			}
			opts.Config.DataDir = dir

			return f.Success(configView{Path: cfg.Path, Config: cfg})
		},
	})

	return cmd
}
