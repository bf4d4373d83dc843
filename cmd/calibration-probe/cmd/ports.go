package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/calibration-helper/internal/instrument"
	"github.com/oshokin/calibration-helper/internal/service/probe"
)

// portsOptions holds the flags of the ports subcommand.
var portsOptions probe.PortsOptions

// portsCmd scans a host for listening instrument ports.
var portsCmd = &cobra.Command{
	Use:   "ports <host>",
	Short: "List open TCP ports of a host.",
	Long: `Connects to every port of the range and prints the ones that accept a connection.
Use it to find the socket of a network-attached interferometer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portsOptions.Host = args[0]
		portsOptions.Output = cmd.OutOrStdout()

		return probe.RunPorts(cmd.Context(), &portsOptions)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := portsCmd.Flags()
	flags.IntVar(&portsOptions.From, "from", 1, "first port of the range")
	flags.IntVar(&portsOptions.To, "to", 1024, "last port of the range")
	flags.DurationVarP(&portsOptions.Timeout, "timeout", "t", instrument.DefaultProbeTimeout, "connect timeout per port")

	rootCmd.AddCommand(portsCmd)
}
