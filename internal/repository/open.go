package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/db"
)

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Repository, error) {
	switch cfg.Backend {
	case config.BackendFS:
		return NewFSRepository(cfg.Path)
	case config.BackendSQLite:
		conn := db.NewSQLite(cfg.Path)
		if err := conn.InitDB(); err != nil {
			return nil, err
		}
		return NewDBRepository(conn), nil
	case config.BackendS3:
		return NewS3Repository(ctx, cfg.S3.Bucket, S3Options{
			AccessKeyID:     os.Getenv(config.EnvS3AccessKeyID),
			SecretAccessKey: os.Getenv(config.EnvS3SecretAccessKey),
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
		})
	case config.BackendMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}
