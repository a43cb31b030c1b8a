package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"dokumenapi/internal/config"
	"dokumenapi/internal/logger"
)

func newRootCmd(cfg *config.AppConfig) *cobra.Command {
	serve := newServeCmd(cfg)

	cmd := &cobra.Command{
		Use:           "dokumenapi",
		Short:         "Document upload API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.Version = "1.0.0"
	cmd.AddCommand(serve, newMigrateCmd(cfg))

	return cmd
}

// loadLocation resolves APP_TIMEZONE, falling back to UTC on unknown names.
func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// setupLogger builds the process logger and installs it as the slog default.
func setupLogger(cfg *config.AppConfig) (*slog.Logger, func(), error) {
	log, flush, err := logger.New(cfg.Log, loadLocation(cfg.Timezone), cfg.IsDevelopment())
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(log)
	return log, flush, nil
}
