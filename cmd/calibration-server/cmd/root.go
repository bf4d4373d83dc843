package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/service/server"
	"github.com/oshokin/calibration-helper/internal/version"
)

var (
	// options collects the flag overrides of the settings file.
	options server.Options

	// rootCmd represents the base command for running the calibration server.
	rootCmd = &cobra.Command{
		Use:   "calibration-server",
		Short: "Run the calibration REST API and instrument health service.",
		Long: `Starts the calibration server that reads the interferometer and the total station,
compares their distances and stores the results.

The REST API serves manual input, live measurements, PDF reports and Excel/ZIP exports.
When grpc_addr is configured, instrument connection state is published through the
standard gRPC health service. Flags override the values from the settings file.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return server.Run(ctx, &options)
		},
	}
)

// Execute runs the calibration-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+", built-in defaults when absent)")
	flags.StringVar(&options.HTTPAddress, "http-addr", "", "REST listen address, e.g. :8000")
	flags.StringVar(&options.GRPCAddress, "grpc-addr", "", "gRPC health listen address, e.g. :9000")
	flags.StringVarP(&options.DataFile, "data-file", "d", "", "path to the JSON results file")
	flags.StringVar(&options.DatabaseDSN, "database-dsn", "", "Postgres connection string; replaces the results file")
	flags.StringVarP(&options.LogLevel, "log-level", "l", "", "log level: debug, info, warn or error")
}
