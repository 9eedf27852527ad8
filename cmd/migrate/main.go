package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/iranadryan/task-manager/internal/app/migrate"
	"github.com/iranadryan/task-manager/internal/repository/sqlite"
	"github.com/iranadryan/task-manager/pkg/config"
	"github.com/iranadryan/task-manager/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|status|down)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	flag.Parse()

	log := logger.New("migrate", slog.LevelInfo)
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	driver, dsn := migrate.DriverPostgres, cfg.DatabaseURL
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		driver, dsn = migrate.DriverSQLite, sqlite.DSN(cfg.SQLitePath)
	case config.StoreDriverMemory:
		log.Info("memory store has no schema; nothing to migrate")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runner, err := migrate.New(driver, dsn, log)
	if err != nil {
		log.Error("failed to configure migration runner", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = runner.Ensure(ctx)
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(1)
	}
	if err != nil {
		log.Error("migration command failed", "command", *command, "error", err)
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command, "driver", driver)
}
