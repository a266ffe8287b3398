// Package app assembles the post board: storage, the write-through
// adapter, the post store and the form controller.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/editor"
	"github.com/debemdeboas/postboard/internal/imaging"
	"github.com/debemdeboas/postboard/internal/persistence"
	"github.com/debemdeboas/postboard/internal/post"
	"github.com/debemdeboas/postboard/internal/repository"
	"github.com/debemdeboas/postboard/internal/util/compression"
)

type App struct {
	Config  *config.Config
	Store   *post.Store
	Editor  *editor.Controller
	Encoder *imaging.Encoder
	Persist *persistence.Adapter

	repo        repository.Repository
	unsubscribe func()
	logger      zerolog.Logger
}

var openRepository = repository.Open

// Open loads the saved posts, seeds the store with them and subscribes
// the adapter so every later mutation is written through.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	repo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("error opening %s storage: %w", cfg.Storage.Backend, err)
	}

	a, err := New(ctx, cfg, repo, logger)
	if err != nil {
		return nil, errors.Join(err, repo.Close())
	}
	return a, nil
}

// New is Open with a repository the caller already built.
func New(ctx context.Context, cfg *config.Config, repo repository.Repository, logger zerolog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	codec, err := compression.ForName(cfg.Storage.Compression)
	if err != nil {
		return nil, err
	}

	adapter := persistence.NewAdapter(repo, cfg.Storage.Key, codec, logger.With().Str("component", "persistence").Logger())
	store := post.New(adapter.Load(ctx),
		post.WithDateLayout(cfg.Posts.DateLayout),
		post.WithLogger(logger.With().Str("component", "store").Logger()),
	)
	encoder := imaging.NewEncoder(logger.With().Str("component", "imaging").Logger())

	a := &App{
		Config:  cfg,
		Store:   store,
		Encoder: encoder,
		Editor:  editor.NewController(store, encoder, logger.With().Str("component", "editor").Logger()),
		Persist: adapter,
		repo:    repo,
		logger:  logger,
	}
	a.unsubscribe = store.Subscribe(adapter.Subscriber(context.WithoutCancel(ctx)))

	ready := logger.Info().
		Str("backend", cfg.Storage.Backend).
		Str("key", adapter.Key()).
		Str("compression", cfg.Storage.Compression).
		Int("posts", store.Len())
	if saved, ok := adapter.LastSaved(ctx); ok {
		ready = ready.Time("last_saved", saved)
	}
	ready.Msg("Post board ready")
	return a, nil
}

// Close stops pending image encodes, writes the collection one last time
// and releases storage.
func (a *App) Close(ctx context.Context) error {
	a.Editor.Close()
	a.unsubscribe()

	var errs []error
	if err := a.Persist.Save(ctx, a.Store.List()); err != nil {
		errs = append(errs, fmt.Errorf("final save: %w", err))
	}
	if err := a.repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}
	return errors.Join(errs...)
}
