package probe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oshokin/calibration-helper/internal/api/grpc/health"
	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/instrument"
	"github.com/oshokin/calibration-helper/internal/service/common"
)

// linePort answers every write with reply.
type linePort struct {
	reply   string
	pending []byte
}

func (p *linePort) Read(buf []byte) (int, error) {
	if len(p.pending) == 0 {
		return 0, io.EOF
	}

	n := copy(buf, p.pending)
	p.pending = p.pending[n:]

	return n, nil
}

func (p *linePort) Write(buf []byte) (int, error) {
	p.pending = append(p.pending, p.reply...)

	return len(buf), nil
}

func (p *linePort) Close() error { return nil }

// serveInterferometer answers distance and signal queries on a loopback socket.
func serveInterferometer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}

			go func() {
				defer conn.Close()

				reader := bufio.NewReader(conn)

				for {
					line, readErr := reader.ReadString('\n')
					if readErr != nil {
						return
					}

					reply := "1234.5678\r\n"
					if strings.HasPrefix(line, "SignalStrength") {
						reply = "25\r\nOK\r\n"
					}

					if _, writeErr := conn.Write([]byte(reply)); writeErr != nil {
						return
					}
				}
			}()
		}
	}()

	return listener.Addr().String()
}

func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestRunPorts prints open ports only.
func TestRunPorts(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = listener.Close() })

	port := listener.Addr().(*net.TCPAddr).Port

	var out bytes.Buffer

	err = RunPorts(context.Background(), &PortsOptions{
		Host:    "127.0.0.1",
		From:    port,
		To:      port,
		Timeout: time.Second,
		Output:  &out,
	})
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("port %d is open\n", port), out.String())

	require.ErrorIs(t, RunPorts(context.Background(), &PortsOptions{From: 1, To: 2, Output: &out}), errHostRequired)
	require.ErrorIs(t, RunPorts(context.Background(), &PortsOptions{Host: "h", From: 0, To: 2, Output: &out}), errInvalidPort)
}

// TestRunMeasure reads both instruments from the config file.
func TestRunMeasure(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.TotalStation.Enabled = true
	cfg.TotalStation.Port = "/dev/ttyUSB0"
	cfg.Interferometer.Enabled = true
	cfg.Interferometer.Address = serveInterferometer(t)

	path := writeConfig(t, cfg)
	opener := func(*serial.Config) (io.ReadWriteCloser, error) {
		return &linePort{reply: "12.345\r\n"}, nil
	}

	var out bytes.Buffer

	err := RunMeasure(context.Background(), &MeasureOptions{
		ConfigPath: path,
		Signal:     true,
		Output:     &out,
		PortOpener: opener,
	})
	require.NoError(t, err)
	require.Equal(t,
		"leica-tc307 (total_station): 12.345 mm\n"+
			"renishaw-xl80 (interferometer): 1234.568 mm\n"+
			"renishaw-xl80 signal strength: 81%\n",
		out.String())

	out.Reset()

	err = RunMeasure(context.Background(), &MeasureOptions{
		ConfigPath: path,
		Instrument: calibration.TotalStation,
		Output:     &out,
		PortOpener: opener,
	})
	require.NoError(t, err)
	require.Equal(t, "leica-tc307 (total_station): 12.345 mm\n", out.String())
}

// TestRunMeasure_Errors covers selection and connection failures.
func TestRunMeasure_Errors(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, config.Default())

	err := RunMeasure(context.Background(), &MeasureOptions{ConfigPath: path, Instrument: "laser"})
	require.ErrorIs(t, err, errUnknownInstrument)

	err = RunMeasure(context.Background(), &MeasureOptions{ConfigPath: path, Output: io.Discard})
	require.ErrorIs(t, err, errNothingToMeasure)

	cfg := config.Default()
	cfg.TotalStation.Enabled = true
	cfg.TotalStation.Port = "/dev/ttyUSB0"
	cfg.TotalStation.Attempts = 1

	err = RunMeasure(context.Background(), &MeasureOptions{
		ConfigPath: writeConfig(t, cfg),
		Output:     io.Discard,
		PortOpener: func(*serial.Config) (io.ReadWriteCloser, error) {
			return nil, fmt.Errorf("open /dev/ttyUSB0: %w", io.ErrUnexpectedEOF)
		},
	})
	require.ErrorIs(t, err, instrument.ErrConnection)
}

// TestRunHealth prints one JSON status per service.
func TestRunHealth(t *testing.T) {
	t.Parallel()

	listener := bufconn.Listen(1 << 20)
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthServer.Register(grpcServer)

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	t.Cleanup(grpcServer.Stop)

	healthServer.Observer(calibration.TotalStation)("leica-tc307", instrument.Connected)

	var out bytes.Buffer

	err := RunHealth(context.Background(), &HealthOptions{
		Address: "passthrough:///bufnet",
		Timeout: time.Second,
		Output:  &out,
		ClientOptions: []common.Option{
			common.WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return listener.DialContext(ctx)
			})),
		},
	})
	require.NoError(t, err)

	got := make(map[string]string)

	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		name, body, found := strings.Cut(line, " ")
		require.True(t, found)

		var resp struct {
			Status string `json:"status"`
		}

		require.NoError(t, json.Unmarshal([]byte(body), &resp))

		got[name] = resp.Status
	}

	require.Equal(t, map[string]string{
		"server":                     "SERVING",
		health.ServiceTotalStation:   "SERVING",
		health.ServiceInterferometer: "NOT_SERVING",
	}, got)
}
