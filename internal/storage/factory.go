package storage

import (
	"context"
	"fmt"
	"log/slog"

	"dokumenapi/internal/config"
)

// Driver names accepted by STORAGE_DRIVER.
const (
	DriverLocal = "local"
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

// New builds the Storage backend selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (Storage, error) {
	switch cfg.Storage.Driver {
	case DriverLocal, "":
		return NewLocal(cfg.Storage.LocalRoot, log)
	case DriverMinIO:
		return NewMinIO(ctx, cfg.MinIO, log)
	case DriverS3:
		return NewS3(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
