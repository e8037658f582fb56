package main

import (
	"context"
	"log"

	"github.com/godilite/gradebot/internal/app"
	"github.com/godilite/gradebot/internal/config"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load(".env")

	cfg := config.LoadFromEnv()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting gradebot",
		zap.String("env", cfg.AppEnv),
		zap.String("dataset", cfg.DatasetPath),
		zap.Bool("grpc", cfg.GRPCEnabled),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("discord", cfg.DiscordToken != ""),
		zap.String("cache", cfg.CacheBackend))

	ctx := context.Background()
	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal("Application exited with error", zap.Error(err))
	}
}
