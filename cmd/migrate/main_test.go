package main

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/model"
	"github.com/debemdeboas/postboard/internal/persistence"
	"github.com/debemdeboas/postboard/internal/repository"
	"github.com/debemdeboas/postboard/internal/util/compression"
)

type failingRepo struct {
	repository.Repository
}

func (failingRepo) Put(context.Context, string, []byte) error {
	return errors.New("bucket unreachable")
}

func adapter(repo repository.Repository, codec compression.Compressor) *persistence.Adapter {
	return persistence.NewAdapter(repo, "", codec, zerolog.Nop())
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	posts := []model.Post{
		{ID: 2, Title: "B", Content: "second", Image: "data:b", Date: "1/2/2025"},
		{ID: 1, Title: "A", Content: "first", Image: "data:a", Date: "1/1/2025"},
	}

	seeded := func(t *testing.T) *persistence.Adapter {
		t.Helper()
		src := adapter(repository.NewMemoryRepository(), compression.ZstdCompressor{})
		if err := src.Save(ctx, posts); err != nil {
			t.Fatalf("Failed to seed source: %v", err)
		}
		return src
	}

	t.Run("Copies every post", func(t *testing.T) {
		dstRepo := repository.NewMemoryRepository()
		dst := adapter(dstRepo, compression.GzipCompressor{})

		n, err := migrate(ctx, seeded(t), dst, false, zerolog.Nop())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if n != len(posts) {
			t.Errorf("Expected %d posts migrated, got %d", len(posts), n)
		}
		if got := adapter(dstRepo, nil).Load(ctx); !reflect.DeepEqual(got, posts) {
			t.Errorf("Expected target to hold the source posts, got %+v", got)
		}
	})

	t.Run("Empty source without force", func(t *testing.T) {
		dstRepo := repository.NewMemoryRepository()
		dst := adapter(dstRepo, nil)
		if err := dst.Save(ctx, posts); err != nil {
			t.Fatal(err)
		}

		src := adapter(repository.NewMemoryRepository(), nil)
		if _, err := migrate(ctx, src, dst, false, zerolog.Nop()); !errors.Is(err, errEmptySource) {
			t.Fatalf("Expected errEmptySource, got %v", err)
		}
		if got := dst.Load(ctx); !reflect.DeepEqual(got, posts) {
			t.Errorf("Expected target to be left untouched, got %+v", got)
		}
	})

	t.Run("Empty source with force", func(t *testing.T) {
		dst := adapter(repository.NewMemoryRepository(), nil)
		src := adapter(repository.NewMemoryRepository(), nil)

		n, err := migrate(ctx, src, dst, true, zerolog.Nop())
		if err != nil || n != 0 {
			t.Fatalf("Expected forced empty copy, got n=%d err=%v", n, err)
		}
		if got := dst.Load(ctx); len(got) != 0 {
			t.Errorf("Expected empty target, got %+v", got)
		}
	})

	t.Run("Target write failure", func(t *testing.T) {
		dst := adapter(failingRepo{repository.NewMemoryRepository()}, nil)

		_, err := migrate(ctx, seeded(t), dst, false, zerolog.Nop())
		if err == nil {
			t.Fatal("Expected error when the target cannot be written")
		}
	})
}
