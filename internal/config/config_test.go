package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 {
	return &v
}

// TestValidate_Defaults checks that an empty config gets every default filled in.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := new(Config)
	require.NoError(t, Validate(cfg))

	require.Equal(t, DefaultHTTPAddress, cfg.HTTPAddress)
	require.Equal(t, DefaultDataFilename, cfg.DataFile)
	require.NotNil(t, cfg.Tolerance.OK)
	require.InDelta(t, DefaultToleranceOK, *cfg.Tolerance.OK, 0)
	require.Zero(t, cfg.Tolerance.Suspicious)

	require.Equal(t, DefaultAttempts, cfg.Interferometer.Attempts)
	require.Equal(t, DefaultRetryDelay, cfg.Interferometer.Delay)
	require.Equal(t, DefaultInterferometerTimeout, cfg.Interferometer.Timeout)
	require.Equal(t, DefaultInterferometerCommand, cfg.Interferometer.Command)

	require.Equal(t, DefaultBaudRate, cfg.TotalStation.BaudRate)
	require.Equal(t, DefaultTotalStationTimeout, cfg.TotalStation.Timeout)
	require.Equal(t, DefaultTotalStationCommand, cfg.TotalStation.Command)
}

// TestValidate_Errors checks the rejected combinations.
func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]*Config{
		"bad http address":     {HTTPAddress: "bad:address:1"},
		"bad grpc address":     {GRPCAddress: "nope"},
		"negative tolerance":   {Tolerance: Tolerance{OK: float(-0.1)}},
		"suspicious below ok":  {Tolerance: Tolerance{OK: float(0.5), Suspicious: 0.4}},
		"suspicious equals ok": {Tolerance: Tolerance{OK: float(0.5), Suspicious: 0.5}},
		"interferometer without address": {
			Interferometer: Interferometer{Enabled: true},
		},
		"interferometer bad address": {
			Interferometer: Interferometer{Enabled: true, Address: "192.168.1.224"},
		},
		"total station without port": {
			TotalStation: TotalStation{Enabled: true},
		},
	}

	for name, cfg := range cases {
		require.Error(t, Validate(cfg), name)
	}

	require.Error(t, Validate(nil))
}

// TestValidate_ExplicitZeroTolerance keeps ok: 0 as an exact-match requirement.
func TestValidate_ExplicitZeroTolerance(t *testing.T) {
	t.Parallel()

	cfg := &Config{Tolerance: Tolerance{OK: float(0)}}
	require.NoError(t, Validate(cfg))
	require.Zero(t, cfg.Tolerance.OKLimit())

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tolerance:\n  ok: 0\n  suspicious: 0.2\n"), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Zero(t, loaded.Tolerance.OKLimit())
	require.InDelta(t, 0.2, loaded.Tolerance.Suspicious, 0)

	require.NoError(t, os.WriteFile(path, []byte("tolerance:\n  suspicious: 1\n"), DefaultFilePermissions))

	loaded, err = Load(path)
	require.NoError(t, err)
	require.InDelta(t, DefaultToleranceOK, loaded.Tolerance.OKLimit(), 0)
	require.InDelta(t, DefaultToleranceOK, Tolerance{}.OKLimit(), 0)
}

// TestValidate_NegativeDelayDisablesPause ensures a negative delay turns into no pause.
func TestValidate_NegativeDelayDisablesPause(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Interferometer: Interferometer{Retry: Retry{Delay: -time.Second}},
	}

	require.NoError(t, Validate(cfg))
	require.Zero(t, cfg.Interferometer.Delay)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		HTTPAddress: "127.0.0.1:8000",
		GRPCAddress: "127.0.0.1:50051",
		Tolerance:   Tolerance{OK: float(0.5), Suspicious: 1},
		Interferometer: Interferometer{
			Enabled: true,
			Address: "192.168.1.224:23",
			Retry:   Retry{Timeout: 3 * time.Second, Attempts: 5, Delay: 250 * time.Millisecond},
		},
		TotalStation: TotalStation{
			Enabled:  true,
			Port:     "/dev/ttyUSB0",
			BaudRate: 19200,
		},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_Errors covers a missing file and malformed YAML.
func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("tolerance: [1, 2"), DefaultFilePermissions))

	_, err = Load(broken)
	require.Error(t, err)

	require.Error(t, Save(filepath.Join(dir, "x.yaml"), nil))
}
