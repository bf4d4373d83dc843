package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the calibration binaries.
type Config struct {
	// HTTPAddress is the listen address of the REST API.
	HTTPAddress string `yaml:"http_addr"`
	// GRPCAddress is the listen address of the instrument health service.
	// Empty disables the gRPC listener.
	GRPCAddress string `yaml:"grpc_addr"`
	// DatabaseDSN selects the Postgres repository when set.
	DatabaseDSN string `yaml:"database_dsn"`
	// DataFile is the JSON results file used when DatabaseDSN is empty.
	DataFile string `yaml:"data_file"`
	// Log configures verbosity and the optional rotating log file.
	Log Log `yaml:"log"`
	// Tolerance holds the verdict thresholds in millimetres.
	Tolerance Tolerance `yaml:"tolerance"`
	// Interferometer configures the TCP-attached interferometer.
	Interferometer Interferometer `yaml:"interferometer"`
	// TotalStation configures the serial-attached total station.
	TotalStation TotalStation `yaml:"total_station"`
}

// Log configures the logger.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File is a strftime pattern for rotated log files; empty logs to stdout only.
	File string `yaml:"file"`
}

// Tolerance holds the verdict thresholds.
type Tolerance struct {
	// OK is the largest absolute difference still judged OK. Only an absent
	// value gets DefaultToleranceOK; an explicit 0 demands an exact match.
	OK *float64 `yaml:"ok"`
	// Suspicious enables the SUSPICIOUS tier when greater than OK; 0 disables it.
	Suspicious float64 `yaml:"suspicious"`
}

// Retry is the bounded retry policy shared by both instruments.
type Retry struct {
	// Timeout bounds a single dial, write or read.
	Timeout time.Duration `yaml:"timeout"`
	// Attempts is the number of tries for opening the link and for each measurement.
	Attempts int `yaml:"retry"`
	// Delay is the pause between attempts; a negative value disables it.
	Delay time.Duration `yaml:"retry_delay"`
}

// Interferometer configures the TCP instrument.
type Interferometer struct {
	// Enabled turns the driver on.
	Enabled bool `yaml:"enabled"`
	// Name identifies the device in readings and logs.
	Name string `yaml:"name"`
	// Address is host:port of the instrument.
	Address string `yaml:"address"`
	// Command is the distance query sent on every measurement.
	Command string `yaml:"command"`
	// SignalCommand is the signal strength query.
	SignalCommand string `yaml:"signal_command"`

	Retry `yaml:",inline"`
}

// TotalStation configures the serial instrument.
type TotalStation struct {
	// Enabled turns the driver on.
	Enabled bool `yaml:"enabled"`
	// Name identifies the device in readings and logs.
	Name string `yaml:"name"`
	// Port is the serial device, e.g. COM1 or /dev/ttyUSB0.
	Port string `yaml:"port"`
	// BaudRate of the serial link.
	BaudRate int `yaml:"baud_rate"`
	// Command is the distance query sent on every measurement.
	Command string `yaml:"command"`

	Retry `yaml:",inline"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "calibration-settings.yaml"

	// DefaultDataFilename is the default results file.
	DefaultDataFilename = "calibration-results.json"

	// DefaultHTTPAddress is the default REST listen address.
	DefaultHTTPAddress = ":8000"

	// DefaultToleranceOK is the OK threshold in millimetres.
	DefaultToleranceOK = 0.5

	// DefaultAttempts is the default retry bound.
	DefaultAttempts = 3

	// DefaultRetryDelay is the default pause between attempts.
	DefaultRetryDelay = time.Second

	// DefaultInterferometerTimeout bounds interferometer socket operations.
	DefaultInterferometerTimeout = 2 * time.Second

	// DefaultTotalStationTimeout bounds a serial read.
	DefaultTotalStationTimeout = time.Second

	// DefaultBaudRate is the total station baud rate.
	DefaultBaudRate = 9600

	// Placeholder wire commands; confirm against the device manuals.
	DefaultInterferometerCommand = "MD?\r\n"
	DefaultSignalCommand         = "SignalStrength\r\n"
	DefaultTotalStationCommand   = "DIST?\r"

	// DefaultCallTimeout bounds a single gRPC call of the probe.
	DefaultCallTimeout = 5 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of the listeners.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTolerance is returned for tolerance.ok < 0.
	errNegativeTolerance = errors.New("tolerance.ok must not be negative")
	// errSuspiciousBelowOK is returned when the third tier would be empty.
	errSuspiciousBelowOK = errors.New("tolerance.suspicious must be 0 or greater than tolerance.ok")
	// errInterferometerAddress is returned when the enabled interferometer has no address.
	errInterferometerAddress = errors.New("interferometer.address must be provided")
	// errTotalStationPort is returned when the enabled total station has no port.
	errTotalStationPort = errors.New("total_station.port must be provided")
)

// Default returns a configuration with every default applied and both instruments disabled.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg) //nolint:errcheck // Defaults always validate.

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the DSN may carry a password.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the provided settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.HTTPAddress == "" {
		cfg.HTTPAddress = DefaultHTTPAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.HTTPAddress); err != nil {
		return fmt.Errorf("invalid http address: %w", err)
	}

	if cfg.GRPCAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.GRPCAddress); err != nil {
			return fmt.Errorf("invalid grpc address: %w", err)
		}
	}

	if cfg.DataFile == "" {
		cfg.DataFile = DefaultDataFilename
	}

	if err := validateTolerance(&cfg.Tolerance); err != nil {
		return err
	}

	if err := validateInterferometer(&cfg.Interferometer); err != nil {
		return err
	}

	return validateTotalStation(&cfg.TotalStation)
}

// validateTolerance applies the default OK threshold and checks the tier ordering.
func validateTolerance(t *Tolerance) error {
	if t.OK == nil {
		ok := DefaultToleranceOK
		t.OK = &ok
	}

	if *t.OK < 0 {
		return errNegativeTolerance
	}

	if t.Suspicious != 0 && t.Suspicious <= *t.OK {
		return errSuspiciousBelowOK
	}

	return nil
}

// OKLimit returns the OK threshold, DefaultToleranceOK when unset.
func (t Tolerance) OKLimit() float64 {
	if t.OK == nil {
		return DefaultToleranceOK
	}

	return *t.OK
}

func validateInterferometer(i *Interferometer) error {
	i.Retry.applyDefaults(DefaultInterferometerTimeout)

	if i.Name == "" {
		i.Name = "renishaw-xl80"
	}

	if i.Command == "" {
		i.Command = DefaultInterferometerCommand
	}

	if i.SignalCommand == "" {
		i.SignalCommand = DefaultSignalCommand
	}

	if !i.Enabled {
		return nil
	}

	if i.Address == "" {
		return errInterferometerAddress
	}

	if _, _, err := net.SplitHostPort(i.Address); err != nil {
		return fmt.Errorf("invalid interferometer address: %w", err)
	}

	return nil
}

func validateTotalStation(ts *TotalStation) error {
	ts.Retry.applyDefaults(DefaultTotalStationTimeout)

	if ts.Name == "" {
		ts.Name = "leica-tc307"
	}

	if ts.BaudRate <= 0 {
		ts.BaudRate = DefaultBaudRate
	}

	if ts.Command == "" {
		ts.Command = DefaultTotalStationCommand
	}

	if ts.Enabled && ts.Port == "" {
		return errTotalStationPort
	}

	return nil
}

// applyDefaults fills zero retry settings.
func (r *Retry) applyDefaults(timeout time.Duration) {
	if r.Timeout <= 0 {
		r.Timeout = timeout
	}

	if r.Attempts <= 0 {
		r.Attempts = DefaultAttempts
	}

	if r.Delay < 0 {
		r.Delay = 0
	} else if r.Delay == 0 {
		r.Delay = DefaultRetryDelay
	}
}
