package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

const dialect = "postgres"

// Files returns the embedded migration tree rooted at the SQL directory.
func Files() (fs.FS, error) {
	return fs.Sub(embedded, "sql")
}

func setup(log *slog.Logger) error {
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	dir, err := Files()
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	goose.SetBaseFS(dir)
	goose.SetLogger(&gooseLogger{log: log})
	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return run(ctx, db, log, "up", func() error { return goose.UpContext(ctx, db, ".") })
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return run(ctx, db, log, "down", func() error { return goose.DownContext(ctx, db, ".") })
}

// Status logs the applied/pending state of every migration.
func Status(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return run(ctx, db, log, "status", func() error { return goose.StatusContext(ctx, db, ".") })
}

func run(ctx context.Context, db *sql.DB, log *slog.Logger, op string, fn func() error) error {
	log = log.With("component", "database", "migration_op", op)
	if err := setup(log); err != nil {
		return err
	}

	start := time.Now()
	log.Info("db_migration_start")

	if err := fn(); err != nil {
		log.Error("db_migration_failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("migration %s: %w", op, err)
	}

	log.Info("db_migration_success", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}
