package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/service/probe"
)

// healthOptions holds the flags of the health subcommand.
var healthOptions probe.HealthOptions

// healthCmd queries a running calibration server.
var healthCmd = &cobra.Command{
	Use:   "health <server-address>",
	Short: "Print the health of a calibration server and its instruments.",
	Long: `Calls the gRPC health service of a running calibration server and prints one
JSON status line for the server, the total station and the interferometer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		healthOptions.Address = args[0]
		healthOptions.Output = cmd.OutOrStdout()

		return probe.RunHealth(cmd.Context(), &healthOptions)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	healthCmd.Flags().DurationVarP(&healthOptions.Timeout, "timeout", "t", config.DefaultCallTimeout, "timeout per call")

	rootCmd.AddCommand(healthCmd)
}
