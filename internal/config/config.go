package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv string

	DatasetPath string
	DBDriver    string
	SubjectCode string

	CommandPrefix     string
	DiscordToken      string
	DispatchQueueSize int

	GRPCEnabled           bool
	GRPCPort              int
	GRPCReflectionEnabled bool

	HTTPAddr string

	CacheBackend string
	RedisAddr    string
	CacheTTL     time.Duration
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		DatasetPath:           getEnv("DATASET_PATH", "grades.json"),
		DBDriver:              getEnv("DB_DRIVER", "sqlite3"),
		SubjectCode:           getEnv("SUBJECT_CODE", "CSCI"),
		CommandPrefix:         getEnv("COMMAND_PREFIX", "!grades"),
		DiscordToken:          getEnv("DISCORD_TOKEN", ""),
		DispatchQueueSize:     getEnvInt("DISPATCH_QUEUE_SIZE", 32),
		GRPCEnabled:           getEnvBool("GRPC_ENABLED", true),
		GRPCPort:              getEnvInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		HTTPAddr:              getEnv("HTTP_ADDR", ""),
		CacheBackend:          getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:              getEnvDuration("CACHE_TTL", time.Hour),
	}
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewCLILogger builds the console logger used by command line tools. Verbose
// lowers the level to debug.
func NewCLILogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
