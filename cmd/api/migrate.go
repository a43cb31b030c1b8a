package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/spf13/cobra"

	"dokumenapi/internal/config"
	"dokumenapi/internal/database"
	"dokumenapi/internal/database/migration"
)

func newMigrateCmd(cfg *config.AppConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect database schema migrations",
	}

	cmd.AddCommand(
		migrateSubcommand(cfg, "up", "Apply all pending migrations", migration.Up),
		migrateSubcommand(cfg, "down", "Roll back the most recent migration", migration.Down),
		migrateSubcommand(cfg, "status", "Print the applied state of every migration", migration.Status),
	)

	return cmd
}

type migrateFunc func(ctx context.Context, db *sql.DB, log *slog.Logger) error

func migrateSubcommand(cfg *config.AppConfig, use, short string, fn migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, flush, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()

			db, err := database.NewPostgres(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			return fn(cmd.Context(), db, log)
		},
	}
}
