// Package httpapi exposes grade lookups over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter registers the HTTP routes.
func NewRouter(grades GradeService, logger *zap.Logger) http.Handler {
	h := NewHandler(grades, logger)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/health", h.healthCheck)

	v1 := router.Group("/api/v1")
	{
		grades := v1.Group("/grades")
		{
			grades.GET("", h.getGrades)
			grades.GET("/chart", h.getGradeChart)
		}
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// Server runs the router on an http.Server.
type Server struct {
	srv     *http.Server
	lis     net.Listener
	logger  *zap.Logger
	started atomic.Bool
}

// NewServer opens the listener on addr so that bind errors surface before
// the application starts.
func NewServer(addr string, handler http.Handler, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &Server{
		srv: &http.Server{
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		lis:    lis,
		logger: logger.Named("http-server"),
	}, nil
}

// Start runs the server in a goroutine and returns immediately.
func (s *Server) Start() {
	s.started.Store(true)
	s.logger.Info("HTTP server starting", zap.String("addr", s.lis.Addr().String()))

	go func() {
		if err := s.srv.Serve(s.lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	if !s.started.Load() {
		return s.lis.Close()
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
