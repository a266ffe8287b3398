package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fsRecordExt = ".rec"

type FSRepository struct { // implements Repository
	dir string
}

// NewFSRepository stores each key as a file under dir, creating dir if needed.
func NewFSRepository(dir string) (*FSRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}
	return &FSRepository{dir: dir}, nil
}

func (r *FSRepository) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(r.dir, key+fsRecordExt), nil
}

func (r *FSRepository) Get(_ context.Context, key string) ([]byte, error) {
	path, err := r.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading record: %w", err)
	}
	return data, nil
}

// Put writes to a temp file in the same directory and renames it over the
// record, so a crash mid-write leaves the previous record intact.
func (r *FSRepository) Put(_ context.Context, key string, value []byte) error {
	path, err := r.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("error syncing record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing record: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing record: %w", err)
	}

	repoLogger.Debug().Str("path", path).Int("bytes", len(value)).Msg("Record written")
	return nil
}

func (r *FSRepository) Close() error {
	return nil
}
