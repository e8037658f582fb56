package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/godilite/gradebot/internal/chart"
	"github.com/godilite/gradebot/internal/config"
	"github.com/godilite/gradebot/internal/discord"
	handler "github.com/godilite/gradebot/internal/grpc"
	"github.com/godilite/gradebot/internal/httpapi"
	"github.com/godilite/gradebot/internal/service"
	"github.com/godilite/gradebot/pkg/cache"
	grpcsrv "github.com/godilite/gradebot/pkg/grpc/server"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	cache      cache.Cacher
	grades     *service.GradeService
	grpcServer *grpcsrv.Server
	httpServer *httpapi.Server
	bot        *discord.Bot
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	data, err := LoadDataset(ctx, cfg.DatasetPath, cfg.DBDriver, logger)
	if err != nil {
		return nil, fmt.Errorf("dataset init failed: %w", err)
	}

	cacheClient, err := cache.Open(ctx, cfg.CacheBackend, cfg.CacheTTL, cache.WithAddress(cfg.RedisAddr))
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	logger.Info("Cache initialized", zap.String("backend", cfg.CacheBackend))

	grades := service.NewGradeService(data, chart.NewRenderer(), cacheClient, service.Options{
		Subject:  cfg.SubjectCode,
		Prefix:   cfg.CommandPrefix,
		ChartTTL: cfg.CacheTTL,
	}, logger)

	a := &App{
		logger: logger,
		cache:  cacheClient,
		grades: grades,
	}

	if cfg.GRPCEnabled {
		a.grpcServer, err = grpcsrv.New(
			grpcsrv.WithPort(cfg.GRPCPort),
			grpcsrv.WithLogger(logger),
			grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
			grpcsrv.WithLogging(true),
		)
		if err != nil {
			a.closeCache()
			return nil, fmt.Errorf("failed to create gRPC server: %w", err)
		}

		grpcHandlers := handler.NewGRPCHandlers(grades, logger)
		a.grpcServer.RegisterServiceWithHealth(handler.ServiceName, func(s *grpc.Server) {
			handler.RegisterGradeQueryServer(s, grpcHandlers)
		})
	}

	if cfg.HTTPAddr != "" {
		a.httpServer, err = httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(grades, logger), logger)
		if err != nil {
			a.shutdown()
			return nil, fmt.Errorf("failed to create HTTP server: %w", err)
		}
	}

	if cfg.DiscordToken != "" {
		a.bot, err = discord.NewBot(grades, discord.Options{
			Token:     cfg.DiscordToken,
			Prefix:    cfg.CommandPrefix,
			QueueSize: cfg.DispatchQueueSize,
		}, logger)
		if err != nil {
			a.shutdown()
			return nil, fmt.Errorf("discord init failed: %w", err)
		}
	}

	if a.grpcServer == nil && a.httpServer == nil && a.bot == nil {
		a.closeCache()
		return nil, errors.New("no transport enabled: set DISCORD_TOKEN, GRPC_ENABLED or HTTP_ADDR")
	}

	return a, nil
}

// Run starts the application and blocks until ctx ends or a shutdown signal
// is received.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.grpcServer != nil {
		a.grpcServer.Start()
	}
	if a.httpServer != nil {
		a.httpServer.Start()
	}
	if a.bot != nil {
		if err := a.bot.Open(); err != nil {
			a.shutdown()
			return err
		}
	}

	<-ctx.Done()

	a.logger.Info("application shutting down")
	a.shutdown()
	_ = a.logger.Sync()
	return nil
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.bot != nil {
		if err := a.bot.Close(ctx); err != nil {
			a.logger.Error("discord shutdown error", zap.Error(err))
		}
	}
	if a.grpcServer != nil {
		a.grpcServer.SetServiceHealth(handler.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		if err := a.grpcServer.Shutdown(ctx); err != nil {
			a.logger.Error("gRPC shutdown error", zap.Error(err))
		}
	}
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("HTTP shutdown error", zap.Error(err))
		}
	}
	a.closeCache()

	if ctx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}
}

func (a *App) closeCache() {
	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}
}
