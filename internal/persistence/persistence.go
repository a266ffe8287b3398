// Package persistence stores the whole post collection as one record
// under a single repository key.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/model"
	"github.com/debemdeboas/postboard/internal/post"
	"github.com/debemdeboas/postboard/internal/repository"
	"github.com/debemdeboas/postboard/internal/util/compression"
)

const DefaultKey = "posts"

type Adapter struct {
	repo       repository.Repository
	key        string
	compressor compression.Compressor
	logger     zerolog.Logger
}

// NewAdapter persists under key using the given codec for writes. Reads
// detect the codec from the record itself.
func NewAdapter(repo repository.Repository, key string, c compression.Compressor, logger zerolog.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if c == nil {
		c = compression.NoneCompressor{}
	}
	return &Adapter{
		repo:       repo,
		key:        key,
		compressor: c,
		logger:     logger.With().Str("key", key).Logger(),
	}
}

func (a *Adapter) Key() string {
	return a.key
}

// LastSaved reports when the record was last written, for backends that
// track it.
func (a *Adapter) LastSaved(ctx context.Context) (time.Time, bool) {
	m, ok := a.repo.(repository.Modified)
	if !ok {
		return time.Time{}, false
	}
	t, err := m.LastModified(ctx, a.key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			a.logger.Debug().Err(err).Msg("Error reading last saved time")
		}
		return time.Time{}, false
	}
	return t, true
}

// Load returns the persisted collection. A missing, undecodable or
// malformed record is never fatal: it yields an empty collection.
func (a *Adapter) Load(ctx context.Context) []model.Post {
	posts, err := a.load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		a.logger.Info().Msg("No saved posts, starting empty")
		return []model.Post{}
	case err != nil:
		a.logger.Warn().Err(err).Msg("Discarding unreadable saved posts")
		return []model.Post{}
	}

	a.logger.Debug().Int("count", len(posts)).Msg("Loaded posts")
	return posts
}

func (a *Adapter) load(ctx context.Context) ([]model.Post, error) {
	raw, err := a.repo.Get(ctx, a.key)
	if err != nil {
		return nil, err
	}

	data, err := compression.Detect(raw).Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("error decompressing record: %w", err)
	}

	var posts []model.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("error parsing record: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

// Save overwrites the record with posts in full.
func (a *Adapter) Save(ctx context.Context, posts []model.Post) error {
	if posts == nil {
		posts = []model.Post{}
	}

	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("error encoding posts: %w", err)
	}

	data, err = a.compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("error compressing posts: %w", err)
	}

	if err := a.repo.Put(ctx, a.key, data); err != nil {
		return fmt.Errorf("error saving posts: %w", err)
	}

	a.logger.Debug().Int("count", len(posts)).Int("bytes", len(data)).Msg("Saved posts")
	return nil
}

// Subscriber writes every store snapshot through to the repository. A
// failed save is logged and the in-memory state carries on.
func (a *Adapter) Subscriber(ctx context.Context) post.Subscriber {
	return func(posts []model.Post) {
		if err := a.Save(ctx, posts); err != nil {
			a.logger.Error().Err(err).Msg("Write-through save failed")
		}
	}
}
