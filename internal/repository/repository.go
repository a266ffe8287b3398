// Package repository provides the durable key-value backends the post
// collection is persisted to. Every write is a full overwrite of one key.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("key not found")

type Repository interface {
	// Get returns ErrNotFound (possibly wrapped) when key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Modified is implemented by backends that record when a key was written.
type Modified interface {
	LastModified(ctx context.Context, key string) (time.Time, error)
}

var repoLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}
