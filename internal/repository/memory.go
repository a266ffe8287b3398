package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/debemdeboas/postboard/internal/cache"
)

type MemoryRepository struct { // implements Repository
	records *cache.Cache[string, []byte]
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: cache.NewCache[string, []byte](),
	}
}

func (r *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	if value, ok := r.records.Get(key); ok {
		return slices.Clone(value), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

func (r *MemoryRepository) Put(_ context.Context, key string, value []byte) error {
	r.records.Set(key, slices.Clone(value))
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
