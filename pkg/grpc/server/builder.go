// Package server builds the gRPC server shared by every service the
// application exposes: health checking, optional reflection and the
// recovery and logging interceptors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// DefaultMaxSendMsgSize leaves room for chart images, which are well above
// typical lookup replies.
const DefaultMaxSendMsgSize = 16 << 20

type Option func(*settings)

type settings struct {
	port           int
	listener       net.Listener
	logger         *zap.Logger
	reflection     bool
	logging        bool
	maxSendMsgSize int
	interceptors   []grpc.UnaryServerInterceptor
}

func WithPort(port int) Option {
	return func(s *settings) { s.port = port }
}

// WithListener serves on lis instead of opening a TCP port.
func WithListener(lis net.Listener) Option {
	return func(s *settings) { s.listener = lis }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func WithReflection(enabled bool) Option {
	return func(s *settings) { s.reflection = enabled }
}

// WithLogging enables the per-call logging interceptor.
func WithLogging(enabled bool) Option {
	return func(s *settings) { s.logging = enabled }
}

func WithMaxSendMsgSize(bytes int) Option {
	return func(s *settings) { s.maxSendMsgSize = bytes }
}

// WithUnaryInterceptors appends interceptors after the built-in ones.
func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(s *settings) { s.interceptors = append(s.interceptors, interceptors...) }
}

type Server struct {
	grpcServer   *grpc.Server
	lis          net.Listener
	logger       *zap.Logger
	healthServer *health.Server
	started      atomic.Bool
}

// New opens the listener and builds the server. Port 0 picks a free port.
func New(opts ...Option) (*Server, error) {
	cfg := &settings{
		port:           50051,
		maxSendMsgSize: DefaultMaxSendMsgSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	lis := cfg.listener
	if lis == nil {
		if cfg.port < 0 || cfg.port > 65535 {
			return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", cfg.port)
		}
		var err error
		if lis, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.port)); err != nil {
			return nil, fmt.Errorf("failed to listen on port %d: %w", cfg.port, err)
		}
	}

	chain := []grpc.UnaryServerInterceptor{RecoveryInterceptor(cfg.logger)}
	if cfg.logging {
		chain = append(chain, LoggingInterceptor(cfg.logger))
	}
	chain = append(chain, cfg.interceptors...)

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(chain...),
		grpc.MaxSendMsgSize(cfg.maxSendMsgSize),
	)
	if cfg.reflection {
		reflection.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		grpcServer:   grpcServer,
		lis:          lis,
		logger:       cfg.logger.Named("grpc-server"),
		healthServer: healthServer,
	}, nil
}

// RegisterServiceWithHealth registers a service and reports it as serving.
func (s *Server) RegisterServiceWithHealth(serviceName string, register func(s *grpc.Server)) {
	register(s.grpcServer)
	if serviceName == "" {
		return
	}
	s.healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	s.logger.Info("registered service with health check", zap.String("service", serviceName))
}

// SetServiceHealth updates the health status of a specific service.
func (s *Server) SetServiceHealth(serviceName string, status healthpb.HealthCheckResponse_ServingStatus) {
	s.healthServer.SetServingStatus(serviceName, status)
	s.logger.Info("updated service health",
		zap.String("service", serviceName),
		zap.String("status", status.String()))
}

// Start serves in a goroutine and returns immediately.
func (s *Server) Start() {
	s.started.Store(true)
	s.logger.Info("gRPC server starting", zap.String("addr", s.lis.Addr().String()))

	go func() {
		if err := s.grpcServer.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()
}

// Shutdown reports every service as not serving, then stops gracefully. When
// ctx ends first, in-flight calls are cut off.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("gRPC server shutting down")
	s.healthServer.Shutdown()

	// GracefulStop only closes listeners handed to Serve.
	if !s.started.Load() {
		s.grpcServer.Stop()
		if err := s.lis.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("close listener: %w", err)
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("forced shutdown due to timeout")
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
