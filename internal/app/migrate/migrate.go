package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/iranadryan/task-manager/db"
)

// Driver names the store backend a Runner migrates.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Runner wraps database migration capabilities.
type Runner struct {
	driver Driver
	dsn    string
	log    *slog.Logger
}

// New returns a migration runner backed by goose and the embedded migrations.
func New(driver Driver, dsn string, log *slog.Logger) (Runner, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return Runner{}, fmt.Errorf("unsupported migration driver %q", driver)
	}
	if dsn == "" {
		return Runner{}, errors.New("empty database dsn")
	}
	if log == nil {
		log = slog.Default()
	}
	return Runner{driver: driver, dsn: dsn, log: log}, nil
}

// Ensure applies pending migrations.
func (r Runner) Ensure(ctx context.Context) error {
	return r.withDB(func(conn *sql.DB, dir string) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		r.log.Info("applying migrations", "driver", r.driver, "dir", dir)
		if err := goose.UpContext(runCtx, conn, dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		r.log.Info("migrations applied")
		return nil
	})
}

// Status reports applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	return r.withDB(func(conn *sql.DB, dir string) error {
		r.log.Info("migration status", "driver", r.driver, "dir", dir)
		if err := goose.StatusContext(ctx, conn, dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Down rolls back migrations either to the previous version or a specific target version.
func (r Runner) Down(ctx context.Context, targetVersion int64) error {
	return r.withDB(func(conn *sql.DB, dir string) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		if targetVersion > 0 {
			r.log.Info("rolling back migrations", "target", targetVersion)
			if err := goose.DownToContext(runCtx, conn, dir, targetVersion); err != nil {
				return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
			}
		} else {
			r.log.Info("rolling back latest migration")
			if err := goose.DownContext(runCtx, conn, dir); err != nil {
				return fmt.Errorf("rollback latest migration: %w", err)
			}
		}

		r.log.Info("rollback complete")
		return nil
	})
}

func (r Runner) withDB(fn func(conn *sql.DB, dir string) error) error {
	sqlDriver, dialect, dir := "pgx", "postgres", db.PostgresDir
	if r.driver == DriverSQLite {
		sqlDriver, dialect, dir = "sqlite", "sqlite3", db.SQLiteDir
	}

	conn, err := sql.Open(sqlDriver, r.dsn)
	if err != nil {
		return fmt.Errorf("open sql connection: %w", err)
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		return fmt.Errorf("ping sql connection: %w", err)
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return fn(conn, dir)
}
