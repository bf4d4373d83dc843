package health

import (
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/calibration-helper/internal/domain/calibration"
	"github.com/oshokin/calibration-helper/internal/instrument"
)

const (
	// ServiceInterferometer is the health service name of the interferometer.
	ServiceInterferometer = "calibration.Interferometer"
	// ServiceTotalStation is the health service name of the total station.
	ServiceTotalStation = "calibration.TotalStation"
)

// Server implements grpc.health.v1.Health for the instruments.
type Server struct {
	// health keeps the serving status per service name.
	health *grpchealth.Server
}

// NewServer creates a health server. The process itself is SERVING, both
// instruments start as NOT_SERVING until their drivers connect.
func NewServer() *Server {
	s := &Server{
		health: grpchealth.NewServer(),
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceInterferometer, healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceTotalStation, healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

// ServiceName returns the health service name of an instrument kind.
func ServiceName(kind calibration.InstrumentKind) string {
	if kind == calibration.TotalStation {
		return ServiceTotalStation
	}

	return ServiceInterferometer
}

// Register attaches the health service to a gRPC server.
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, s.health)
}

// Observer returns a driver state observer that updates the service of kind.
func (s *Server) Observer(kind calibration.InstrumentKind) instrument.StateObserver {
	service := ServiceName(kind)

	return func(_ string, state instrument.State) {
		s.health.SetServingStatus(service, toServingStatus(state))
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}

// HealthServer returns the underlying implementation, mainly for tests.
func (s *Server) HealthServer() healthpb.HealthServer {
	return s.health
}

// toServingStatus converts a driver state to a health status.
func toServingStatus(state instrument.State) healthpb.HealthCheckResponse_ServingStatus {
	if state == instrument.Connected {
		return healthpb.HealthCheckResponse_SERVING
	}

	return healthpb.HealthCheckResponse_NOT_SERVING
}
