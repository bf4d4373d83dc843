package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/calibration-helper/internal/version"
)

// rootCmd groups the diagnostic subcommands.
var rootCmd = &cobra.Command{
	Use:   "calibration-probe",
	Short: "Diagnose calibration instruments and the calibration server.",
	Long: `Bench tools for the calibration laboratory.

Scan a host for open instrument ports, take a one-shot reading from the configured
instruments without starting the server, or query the health service of a running
calibration server.`,
	SilenceUsage: true,
}

// Execute runs the calibration-probe CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
