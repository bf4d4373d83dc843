package integration

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"

	"github.com/oshokin/calibration-helper/internal/config"
	"github.com/oshokin/calibration-helper/internal/service/server"
)

// reservePort returns a loopback address that was free a moment ago.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// serveInterferometer answers every query with reply over a loopback socket.
func serveInterferometer(t *testing.T, reply string) string {
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
					if _, readErr := reader.ReadString('\n'); readErr != nil {
						return
					}

					if _, writeErr := io.WriteString(conn, reply); writeErr != nil {
						return
					}
				}
			}()
		}
	}()

	return listener.Addr().String()
}

// stationPort is a serial port that answers every command with reply.
type stationPort struct {
	mu      sync.Mutex
	reply   string
	pending []byte
}

func (p *stationPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		// A real port returns EOF when its read timeout expires empty.
		time.Sleep(time.Millisecond)

		return 0, io.EOF
	}

	n := copy(buf, p.pending)
	p.pending = p.pending[n:]

	return n, nil
}

func (p *stationPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = append(p.pending, p.reply...)

	return len(buf), nil
}

func (p *stationPort) Close() error { return nil }

// stationOpener opens a stationPort answering with reply.
func stationOpener(reply string) func(*serial.Config) (io.ReadWriteCloser, error) {
	return func(*serial.Config) (io.ReadWriteCloser, error) {
		return &stationPort{reply: reply}, nil
	}
}

// calibrationServer is a server.Run instance bound to loopback ports.
type calibrationServer struct {
	baseURL  string
	grpcAddr string
	dataFile string
	cancel   context.CancelFunc
	done     chan error
}

// startServer saves cfg, runs the server and waits until the REST API answers.
func startServer(t *testing.T, cfg *config.Config, opts server.Options) *calibrationServer {
	t.Helper()

	cfg.HTTPAddress = reservePort(t)
	cfg.GRPCAddress = reservePort(t)

	if cfg.DataFile == "" {
		cfg.DataFile = filepath.Join(t.TempDir(), "results.json")
	}

	opts.ConfigPath = filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(opts.ConfigPath, cfg))

	ctx, cancel := context.WithCancel(context.Background())
	srv := &calibrationServer{
		baseURL:  "http://" + cfg.HTTPAddress,
		grpcAddr: cfg.GRPCAddress,
		dataFile: cfg.DataFile,
		cancel:   cancel,
		done:     make(chan error, 1),
	}

	go func() {
		srv.done <- server.Run(ctx, &opts)
	}()

	t.Cleanup(func() { srv.stop(t) })

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.baseURL + "/instruments") //nolint:noctx // Readiness probe.
		if err != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return srv
}

// stop cancels the server once and checks that it shut down cleanly.
func (s *calibrationServer) stop(t *testing.T) {
	t.Helper()

	if s.cancel == nil {
		return
	}

	s.cancel()
	s.cancel = nil

	select {
	case err := <-s.done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("calibration server did not stop")
	}
}
