package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/ledger/internal/cli"
	"github.com/roach88/ledger/internal/config"
	"github.com/roach88/ledger/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Logging before the config is read goes to stderr at the default level.
	if _, err := logger.Setup(logger.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return cli.ExitCommandError
	}
	log := logger.WithComponent("main")

	env, err := config.MergeDotEnv(config.Environ(os.Environ()), ".env")
	if err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(env)
	if err := cmd.ExecuteContext(ctx); err != nil {
		code := cli.GetExitCode(err)
		// Commands that already reported through the formatter return a
		// wrapped ExitError; anything else still needs printing.
		if !cli.Reported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return code
	}
	return cli.ExitSuccess
}
