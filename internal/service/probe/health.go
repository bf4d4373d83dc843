package probe

import (
	"context"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/calibration-helper/internal/api/grpc/health"
	"github.com/oshokin/calibration-helper/internal/logger"
	"github.com/oshokin/calibration-helper/internal/service/common"
)

// HealthOptions configures a health query.
type HealthOptions struct {
	// Address of the calibration server gRPC listener.
	Address string
	// Timeout bounds each call.
	Timeout time.Duration
	// Output receives one JSON line per service.
	Output io.Writer
	// ClientOptions are passed to the gRPC client.
	ClientOptions []common.Option
}

// healthServices are queried in this order; "" is the server itself.
//
//nolint:gochecknoglobals // Read-only list.
var healthServices = []string{"", health.ServiceTotalStation, health.ServiceInterferometer}

// RunHealth prints the serving status of the server and both instruments.
func RunHealth(ctx context.Context, opts *HealthOptions) error {
	ctx = logger.WithName(ctx, "health")

	clientOptions := append([]common.Option{common.WithCallTimeout(opts.Timeout)}, opts.ClientOptions...)

	client, err := common.Dial(ctx, opts.Address, clientOptions...)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	marshal := protojson.MarshalOptions{EmitUnpopulated: true}

	for _, service := range healthServices {
		resp, checkErr := client.Check(ctx, service)
		if checkErr != nil {
			return checkErr
		}

		data, marshalErr := marshal.Marshal(resp)
		if marshalErr != nil {
			return fmt.Errorf("encode health response: %w", marshalErr)
		}

		name := service
		if name == "" {
			name = "server"
		}

		logger.DebugKV(ctx, "Health checked", "service", name, "status", resp.GetStatus().String())

		if _, err = fmt.Fprintf(opts.Output, "%s %s\n", name, data); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	return nil
}
