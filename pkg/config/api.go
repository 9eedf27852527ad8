package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers understood by the API.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Addr        string `env:"API_ADDR" envDefault:":4000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://tasks:tasks@db:5432/tasks?sslmode=disable"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/tasks.db"`

	JWTSecret  string        `env:"JWT_SECRET" envDefault:"supersecuresecret"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"0"`

	NotifyQueue    string `env:"NOTIFY_QUEUE" envDefault:"memory"`
	NotifyQueueKey string `env:"NOTIFY_QUEUE_KEY" envDefault:"tasks:notifications"`
	NotifyBuffer   int    `env:"NOTIFY_BUFFER" envDefault:"256"`
	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@task-manager.local"`

	AvatarStore string `env:"AVATAR_STORE" envDefault:"db"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() (APIConfig, error) {
	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		return APIConfig{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMemory:
	default:
		return APIConfig{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.TokenTTL < 0 {
		return APIConfig{}, fmt.Errorf("TOKEN_TTL must not be negative")
	}
	return cfg, nil
}
