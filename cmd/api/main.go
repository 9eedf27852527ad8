package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iranadryan/task-manager/internal/app/migrate"
	"github.com/iranadryan/task-manager/internal/avatar"
	httpx "github.com/iranadryan/task-manager/internal/http"
	"github.com/iranadryan/task-manager/internal/notify"
	"github.com/iranadryan/task-manager/internal/repository"
	"github.com/iranadryan/task-manager/internal/repository/memory"
	"github.com/iranadryan/task-manager/internal/repository/postgres"
	"github.com/iranadryan/task-manager/internal/repository/sqlite"
	"github.com/iranadryan/task-manager/internal/service/account"
	"github.com/iranadryan/task-manager/internal/service/auth"
	"github.com/iranadryan/task-manager/internal/service/session"
	"github.com/iranadryan/task-manager/internal/service/task"
	"github.com/iranadryan/task-manager/internal/ws"
	"github.com/iranadryan/task-manager/pkg/config"
	"github.com/iranadryan/task-manager/pkg/logger"
	"github.com/iranadryan/task-manager/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.APIConfig, log *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, "task-manager-api", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	queue := openQueue(cfg, log)
	defer queue.Close()
	dispatcher := notify.NewDispatcher(queue, newSender(cfg, log), log)
	go func() {
		if err := dispatcher.Run(ctx); err != nil {
			log.Error("notification dispatcher stopped", "error", err)
		}
	}()

	avatars, err := openAvatarStore(ctx, cfg, store)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	defer hub.Stop()

	taskSvc := task.New(store, httpx.NewEventPublisher(hub, log), log)
	sessionSvc := session.New(store, store, log, cfg)
	accountSvc := account.New(store, store, store, taskSvc, avatars, dispatcher, log, cfg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := httpx.NewRouter(log, httpx.Services{
		Accounts: accountSvc,
		Sessions: sessionSvc,
		Guard:    auth.New(sessionSvc, log),
		Tasks:    taskSvc,
	}, hub, registry, store.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "store", cfg.StoreDriver, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
		return nil
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

func openStore(ctx context.Context, cfg config.APIConfig, log *slog.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	case config.StoreDriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		runner, err := migrate.New(migrate.DriverSQLite, sqlite.DSN(cfg.SQLitePath), log)
		if err != nil {
			return nil, fmt.Errorf("configure migrations: %w", err)
		}
		if err := runner.Ensure(ctx); err != nil {
			return nil, err
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	default:
		runner, err := migrate.New(migrate.DriverPostgres, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("configure migrations: %w", err)
		}
		if err := runner.Ensure(ctx); err != nil {
			return nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return postgres.New(pool), nil
	}
}

func openQueue(cfg config.APIConfig, log *slog.Logger) notify.Queue {
	if cfg.NotifyQueue != "redis" {
		return notify.NewMemoryQueue(cfg.NotifyBuffer)
	}
	queue, err := notify.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.NotifyQueueKey)
	if err != nil {
		log.Warn("redis notification queue unavailable, falling back to memory", "error", err)
		return notify.NewMemoryQueue(cfg.NotifyBuffer)
	}
	return queue
}

func newSender(cfg config.APIConfig, log *slog.Logger) notify.Sender {
	if cfg.SMTPHost == "" {
		return notify.NewLogSender(log)
	}
	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		log.Warn("smtp sender unavailable, logging mail instead", "error", err)
		return notify.NewLogSender(log)
	}
	return sender
}

func openAvatarStore(ctx context.Context, cfg config.APIConfig, store repository.Store) (avatar.Store, error) {
	if cfg.AvatarStore != "s3" {
		return avatar.NewRepositoryStore(store), nil
	}
	s3Store, err := avatar.NewS3Store(ctx, avatar.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("configure avatar store: %w", err)
	}
	return s3Store, nil
}
