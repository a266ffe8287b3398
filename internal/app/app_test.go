package app

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/editor"
	"github.com/debemdeboas/postboard/internal/imaging"
	"github.com/debemdeboas/postboard/internal/model"
	"github.com/debemdeboas/postboard/internal/repository"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	return cfg
}

func TestOpenDefaultsToEmpty(t *testing.T) {
	a, err := Open(context.Background(), memoryConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close(context.Background())

	if a.Store.Len() != 0 {
		t.Errorf("Expected empty store, got %d", a.Store.Len())
	}
}

type closeTrackingRepo struct {
	repository.Repository
	closed bool
}

func (r *closeTrackingRepo) Close() error {
	r.closed = true
	return nil
}

func TestOpenRejectsUnknownCompression(t *testing.T) {
	repo := &closeTrackingRepo{Repository: repository.NewMemoryRepository()}
	orig := openRepository
	openRepository = func(context.Context, config.StorageConfig) (repository.Repository, error) {
		return repo, nil
	}
	defer func() { openRepository = orig }()

	cfg := memoryConfig()
	cfg.Storage.Compression = "lz4"
	if _, err := Open(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("Expected error for unknown compression")
	}
	if !repo.closed {
		t.Error("Expected storage to be closed when setup fails")
	}
}

// The full form flow, persisted across a restart on the same storage.
func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()

	a, err := New(ctx, memoryConfig(), repo, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	a.Editor.SetField(editor.FieldTitle, "Hello")
	a.Editor.SetField(editor.FieldContent, "World")
	<-a.Editor.SelectImage(imaging.BytesSource{Filename: "a.png", Data: []byte("\x89PNG\r\n\x1a\n")})
	if got := a.Editor.Submit(); got != editor.Created {
		t.Fatalf("Expected Created, got %v", got)
	}

	created := a.Store.List()[0]
	if created.Image != "data:image/png;base64,iVBORw0KGgo=" {
		t.Errorf("Unexpected image %q", created.Image)
	}

	a.Editor.StartEdit(created)
	a.Editor.SetField(editor.FieldContent, "Updated")
	if got := a.Editor.Submit(); got != editor.Updated {
		t.Fatalf("Expected Updated, got %v", got)
	}

	want := a.Store.List()
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// MemoryRepository.Close is a no-op, so the same instance can be reopened.
	b, err := New(ctx, memoryConfig(), repo, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close(ctx)

	if got := b.Store.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v after restart, got %+v", want, got)
	}
	if got, _ := b.Store.Get(created.ID); got.Content != "Updated" || got.Date != created.Date {
		t.Errorf("Unexpected post after restart %+v", got)
	}
}

func TestCloseStopsWriteThrough(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	a, err := New(ctx, memoryConfig(), repo, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	a.Store.Create(model.Draft{Title: "t", Content: "c", Image: "i"})
	if err := a.Close(ctx); err != nil {
		t.Fatal(err)
	}

	a.Store.Create(model.Draft{Title: "late", Content: "c", Image: "i"})
	if got := a.Persist.Load(ctx); len(got) != 1 {
		t.Errorf("Expected mutations after close not to persist, got %d posts", len(got))
	}
}
