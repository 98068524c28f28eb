package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/argusml/argus/internal/cli"
	"github.com/argusml/argus/pkg/logger"
	"github.com/argusml/argus/pkg/observability"
	"github.com/argusml/argus/pkg/version"

	// Import all task implementations to register them
	_ "github.com/argusml/argus/pkg/ops/classify"
	_ "github.com/argusml/argus/pkg/ops/detect"
	_ "github.com/argusml/argus/pkg/ops/export"
	_ "github.com/argusml/argus/pkg/ops/segment"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	logLevel := os.Getenv("ARGUS_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	if err := logger.Init(logger.Config{Level: logLevel, Encoding: "console"}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := observability.Initialize(observability.Config{
		Enabled:        os.Getenv("ARGUS_TRACE") != "",
		ServiceVersion: version.Version,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:   "argus [task] [mode] [arg=value...]",
		Short: "Argus - model training and inference CLI",
		Long: `Argus trains, validates, runs and exports vision models for the
detect, segment and classify task families. Arguments are positional tokens:
an optional task, a mode, and any number of arg=value overrides.`,
		Args: cobra.ArbitraryArgs,
		// Tokens like conf=0.5 must reach the dispatcher untouched
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer func() { _ = observability.Shutdown(context.Background()) }()
			return cli.Dispatch(ctx, args, cmd.OutOrStdout())
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
