package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/logger"
	"github.com/oshokin/calibration-helper/internal/service/probe"
)

var (
	// measureOptions holds the flags of the measure subcommand.
	measureOptions probe.MeasureOptions
	// measureLogLevel overrides the log level of the settings file.
	measureLogLevel string
)

// measureCmd takes one reading from the configured instruments.
var measureCmd = &cobra.Command{
	Use:   "measure [interferometer|total_station]",
	Short: "Take one reading from the configured instruments.",
	Long: `Connects to the enabled instruments of the settings file with their retry policy,
reads one distance from each and prints it in millimetres.
Name an instrument to read only that one.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(calibration.Interferometer), string(calibration.TotalStation)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			measureOptions.Instrument = calibration.InstrumentKind(args[0])
		}

		if err := logger.Setup(measureLogLevel, ""); err != nil {
			return err
		}

		measureOptions.Output = cmd.OutOrStdout()

		return probe.RunMeasure(cmd.Context(), &measureOptions)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := measureCmd.Flags()
	flags.StringVarP(&measureOptions.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.BoolVarP(&measureOptions.Signal, "signal", "s", false, "also print the interferometer signal strength")
	flags.StringVarP(&measureLogLevel, "log-level", "l", "warn", "log level: debug, info, warn or error")

	rootCmd.AddCommand(measureCmd)
}
