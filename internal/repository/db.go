package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/postboard/internal/db"
)

type DBRepository struct { // implements Repository, Modified
	db db.DB
}

// NewDBRepository expects an initialized db.DB.
func NewDBRepository(db db.DB) *DBRepository {
	return &DBRepository{db: db}
}

func (r *DBRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying record: %w", err)
	}
	return value, nil
}

func (r *DBRepository) Put(ctx context.Context, key string, value []byte) error {
	res, err := r.db.Exec(ctx,
		`INSERT INTO kv (key, value, modified_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, modified_at = excluded.modified_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error saving record: %w", err)
	}

	repoLogger.Debug().Interface("result", res).Str("key", key).Msg("Record saved")
	return nil
}

// LastModified reports when key was last written.
func (r *DBRepository) LastModified(ctx context.Context, key string) (time.Time, error) {
	var modified time.Time
	err := r.db.QueryRow(ctx, `SELECT modified_at FROM kv WHERE key = ?`, key).Scan(&modified)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error scanning modified time: %w", err)
	}
	return modified, nil
}

func (r *DBRepository) Close() error {
	return r.db.Close()
}
