package probe

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/instrument"
	"github.com/oshokin/calibration-helper/internal/logger"
)

// MeasureOptions configures a one-shot reading.
type MeasureOptions struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// Instrument selects the device; empty means every enabled one.
	Instrument calibration.InstrumentKind
	// Signal also queries the interferometer signal strength.
	Signal bool
	// Output receives the readings.
	Output io.Writer
	// PortOpener replaces the serial port driver; nil uses the real port.
	PortOpener instrument.PortOpener
}

var (
	// errNothingToMeasure is returned when the selected instruments are disabled.
	errNothingToMeasure = errors.New("no enabled instrument matches the selection")
	// errUnknownInstrument is returned for an unsupported selection.
	errUnknownInstrument = errors.New("instrument must be interferometer or total_station")
)

// RunMeasure connects to the selected instruments, takes one reading from
// each and prints it.
func RunMeasure(ctx context.Context, opts *MeasureOptions) error {
	ctx = logger.WithName(ctx, "measure")

	switch opts.Instrument {
	case "", calibration.Interferometer, calibration.TotalStation:
	default:
		return fmt.Errorf("%w: %q", errUnknownInstrument, opts.Instrument)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	measured := 0

	if cfg.TotalStation.Enabled && selected(opts.Instrument, calibration.TotalStation) {
		if err = measureTotalStation(ctx, cfg.TotalStation, opts); err != nil {
			return err
		}

		measured++
	}

	if cfg.Interferometer.Enabled && selected(opts.Instrument, calibration.Interferometer) {
		if err = measureInterferometer(ctx, cfg.Interferometer, opts); err != nil {
			return err
		}

		measured++
	}

	if measured == 0 {
		return errNothingToMeasure
	}

	return nil
}

func selected(want, kind calibration.InstrumentKind) bool {
	return want == "" || want == kind
}

func measureTotalStation(ctx context.Context, cfg config.TotalStation, opts *MeasureOptions) error {
	ts, err := instrument.NewTotalStation(ctx, cfg, opts.PortOpener)
	if err != nil {
		return err
	}

	defer ts.Close()

	reading, err := ts.Read(ctx)
	if err != nil {
		return fmt.Errorf("measure %s: %w", cfg.Name, err)
	}

	return printReading(opts.Output, reading)
}

func measureInterferometer(ctx context.Context, cfg config.Interferometer, opts *MeasureOptions) error {
	ifm, err := instrument.NewInterferometer(ctx, cfg)
	if err != nil {
		return err
	}

	defer ifm.Close()

	reading, err := ifm.Read(ctx)
	if err != nil {
		return fmt.Errorf("measure %s: %w", cfg.Name, err)
	}

	if err = printReading(opts.Output, reading); err != nil {
		return err
	}

	if !opts.Signal {
		return nil
	}

	strength, err := ifm.SignalStrength(ctx)
	if err != nil {
		return fmt.Errorf("signal strength %s: %w", cfg.Name, err)
	}

	if _, err = fmt.Fprintf(opts.Output, "%s signal strength: %d%%\n", cfg.Name, strength); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}

func printReading(w io.Writer, reading calibration.Reading) error {
	_, err := fmt.Fprintf(w, "%s (%s): %.3f mm\n", reading.Source, reading.Instrument, reading.Distance)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}
