package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"google.golang.org/grpc"

	httpapi "github.com/oshokin/calibration-helper/internal/api/http/calibration"
	"github.com/oshokin/calibration-helper/internal/api/grpc/health"
	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/instrument"
	"github.com/oshokin/calibration-helper/internal/logger"
	"github.com/oshokin/calibration-helper/internal/repository/measurement"
	"github.com/oshokin/calibration-helper/internal/repository/measurement/postgres"
	"github.com/oshokin/calibration-helper/internal/version"
)

// readHeaderTimeout bounds reading request headers.
const readHeaderTimeout = 10 * time.Second

// Options controls the calibration-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// HTTPAddress overrides the REST listen address.
	HTTPAddress string
	// GRPCAddress overrides the health service listen address.
	GRPCAddress string
	// DataFile overrides the JSON results file.
	DataFile string
	// DatabaseDSN overrides the Postgres connection string.
	DatabaseDSN string
	// LogLevel overrides the configured log level.
	LogLevel string
	// PortOpener replaces the serial port driver; nil uses the real port.
	PortOpener instrument.PortOpener
}

// Run starts the HTTP API and the optional gRPC health service and blocks
// until ctx is canceled or a listener fails.
func Run(ctx context.Context, opts *Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	level := settings.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	if err = logger.Setup(level, settings.Log.File); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "calibration-server")
	logger.InfoKV(ctx, "Starting", "version", version.Full())

	repo, closeRepo, err := openRepository(ctx, settings)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	defer closeRepo()

	healthServer := health.NewServer()

	tolerance := calibration.Tolerance{
		OK:         settings.Tolerance.OKLimit(),
		Suspicious: settings.Tolerance.Suspicious,
	}

	svc := newService(repo, tolerance, connectInstruments(ctx, settings, opts.PortOpener, healthServer)...)
	defer svc.Close()

	lc := net.ListenConfig{}

	httpListener, err := lc.Listen(ctx, "tcp", settings.HTTPAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.HTTPAddress, err)
	}

	httpServer := &http.Server{
		Handler:           httpapi.NewServer(svc).Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var (
		grpcServer   *grpc.Server
		grpcListener net.Listener
	)

	if settings.GRPCAddress != "" {
		grpcListener, err = lc.Listen(ctx, "tcp", settings.GRPCAddress)
		if err != nil {
			_ = httpListener.Close()

			return fmt.Errorf("listen on %s: %w", settings.GRPCAddress, err)
		}

		grpcServer = grpc.NewServer()
		healthServer.Register(grpcServer)
	}

	logger.InfoKV(ctx, "Calibration server listening",
		"http_address", httpListener.Addr().String(),
		"grpc_address", settings.GRPCAddress,
		"tolerance_ok", tolerance.OK,
		"three_tier", tolerance.ThreeTier(),
	)

	// Both serve loops report here; the first error or ctx cancellation stops everything.
	errs := make(chan error, 2)

	go func() {
		if serveErr := httpServer.Serve(httpListener); !errors.Is(serveErr, http.ErrServerClosed) {
			errs <- fmt.Errorf("serve HTTP: %w", serveErr)
		}
	}()

	if grpcServer != nil {
		go func() {
			if serveErr := grpcServer.Serve(grpcListener); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
				errs <- fmt.Errorf("serve gRPC: %w", serveErr)
			}
		}()
	}

	var runErr error

	select {
	case <-ctx.Done():
	case runErr = <-errs:
		logger.ErrorKV(ctx, "Listener failed", "error", runErr)
	}

	logger.Info(ctx, "Shutting down calibration server")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DefaultShutdownTimeout)
	defer cancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "HTTP shutdown incomplete", "error", err)
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	logger.Info(ctx, "Calibration server stopped")

	return runErr
}

// loadSettings reads the config file and applies command line overrides.
// A missing file at the default location means built-in defaults.
func loadSettings(opts *Options) (*config.Config, error) {
	settings, err := config.Load(opts.ConfigPath)

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && opts.ConfigPath == "":
		settings = config.Default()
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.HTTPAddress != "" {
		settings.HTTPAddress = opts.HTTPAddress
	}

	if opts.GRPCAddress != "" {
		settings.GRPCAddress = opts.GRPCAddress
	}

	if opts.DataFile != "" {
		settings.DataFile = opts.DataFile
	}

	if opts.DatabaseDSN != "" {
		settings.DatabaseDSN = opts.DatabaseDSN
	}

	if err = config.Validate(settings); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return settings, nil
}

// openRepository picks Postgres when a DSN is configured and the JSON file otherwise.
func openRepository(ctx context.Context, settings *config.Config) (measurement.Repository, func(), error) {
	if settings.DatabaseDSN == "" {
		logger.InfoKV(ctx, "Storing results in file", "data_file", settings.DataFile)

		return measurement.NewFileRepository(settings.DataFile), func() {}, nil
	}

	repo, err := postgres.Open(ctx, settings.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "Storing results in PostgreSQL")

	return repo, func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Close database", "error", closeErr)
		}
	}, nil
}

// connectInstruments builds a driver for every enabled instrument. A driver
// that cannot connect is logged and left out; the slot stays so that its
// state can be reported.
func connectInstruments(
	ctx context.Context,
	settings *config.Config,
	opener instrument.PortOpener,
	healthServer *health.Server,
) []*slot {
	var slots []*slot

	if cfg := settings.Interferometer; cfg.Enabled {
		sl := &slot{name: cfg.Name, kind: calibration.Interferometer}

		ifm, err := instrument.NewInterferometer(ctx, cfg,
			instrument.WithStateObserver(stateObserver(ctx, healthServer, calibration.Interferometer)))
		if err != nil {
			logger.ErrorKV(ctx, "Interferometer unavailable", "name", cfg.Name, "address", cfg.Address, "error", err)
		} else {
			sl.dev = ifm
		}

		slots = append(slots, sl)
	}

	if cfg := settings.TotalStation; cfg.Enabled {
		sl := &slot{name: cfg.Name, kind: calibration.TotalStation}

		ts, err := instrument.NewTotalStation(ctx, cfg, opener,
			instrument.WithStateObserver(stateObserver(ctx, healthServer, calibration.TotalStation)))
		if err != nil {
			logger.ErrorKV(ctx, "Total station unavailable", "name", cfg.Name, "port", cfg.Port, "error", err)
		} else {
			sl.dev = ts
		}

		slots = append(slots, sl)
	}

	return slots
}

// stateObserver logs driver state changes and mirrors them into the health service.
func stateObserver(
	ctx context.Context,
	healthServer *health.Server,
	kind calibration.InstrumentKind,
) instrument.StateObserver {
	update := healthServer.Observer(kind)

	return func(name string, state instrument.State) {
		logger.DebugKV(ctx, "Instrument state changed", "instrument", name, "state", state.String())
		update(name, state)
	}
}
