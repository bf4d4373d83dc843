// Package health implements the gRPC transport for instrument health.
//
// It serves the standard grpc.health.v1.Health service. Each instrument kind
// is exposed as its own service name whose serving status follows the
// connection state of the driver.
package health
