// Package health serves gRPC liveness and readiness probes backed by dependency checks.
package health

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Probe checks one dependency. Name doubles as the health service name.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server runs the probes periodically and publishes the results.
type Server struct {
	gs       *grpc.Server
	hs       *grpchealth.Server
	probes   []Probe
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

// New builds a health server. The overall service "" is SERVING only when
// every probe passes. Reflection is registered when reflect is set.
func New(log *zap.Logger, interval time.Duration, reflect bool, probes ...Probe) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		LoggingUnary(log, healthpb.Health_Check_FullMethodName),
	))
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	if reflect {
		reflection.Register(gs)
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, p := range probes {
		hs.SetServingStatus(p.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return &Server{gs: gs, hs: hs, probes: probes, interval: interval, timeout: interval / 2, log: log}
}

// Refresh runs every probe once and updates statuses.
func (s *Server) Refresh(ctx context.Context) bool {
	all := true
	for _, p := range s.probes {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.Check(cctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			all = false
			st = healthpb.HealthCheckResponse_NOT_SERVING
			s.log.Warn("probe failed", zap.String("probe", p.Name), zap.Error(err))
		}
		s.hs.SetServingStatus(p.Name, st)
	}
	overall := healthpb.HealthCheckResponse_SERVING
	if !all {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.hs.SetServingStatus("", overall)
	return all
}

// Serve accepts probe connections on lis and refreshes statuses until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go s.loop(ctx)
	go func() {
		<-ctx.Done()
		s.hs.Shutdown()
		s.gs.GracefulStop()
	}()
	return s.gs.Serve(lis)
}

func (s *Server) loop(ctx context.Context) {
	s.Refresh(ctx)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}
