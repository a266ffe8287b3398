// Command migrate copies the saved post collection from one storage
// configuration to another, e.g. from the filesystem into SQLite or S3.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/logger"
	"github.com/debemdeboas/postboard/internal/persistence"
	"github.com/debemdeboas/postboard/internal/post"
	"github.com/debemdeboas/postboard/internal/repository"
	"github.com/debemdeboas/postboard/internal/util/compression"
)

func main() {
	from := flag.String("from", "", "config file describing the source storage")
	to := flag.String("to", "", "config file describing the target storage")
	force := flag.Bool("force", false, "overwrite the target even when the source holds no posts")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New("info", "console", os.Stderr)

	if *from == "" || *to == "" {
		log.Fatal().Msg("Both --from and --to flags are required")
	}

	ctx := context.Background()
	src, srcRepo := open(ctx, log, *from)
	defer srcRepo.Close()
	dst, dstRepo := open(ctx, log, *to)
	defer dstRepo.Close()

	n, err := migrate(ctx, src, dst, *force, log)
	if err != nil {
		srcRepo.Close()
		dstRepo.Close()
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Int("posts", n).Str("from", *from).Str("to", *to).Msg("Migration complete")
}

var errEmptySource = errors.New("source holds no posts; pass --force to overwrite the target anyway")

// migrate copies the collection from src to dst and returns how many posts
// were written. Going through a store drops entries that are invalid or
// duplicated.
func migrate(ctx context.Context, src, dst *persistence.Adapter, force bool, log zerolog.Logger) (int, error) {
	posts := post.New(src.Load(ctx), post.WithLogger(log)).List()
	if len(posts) == 0 && !force {
		return 0, errEmptySource
	}

	if err := dst.Save(ctx, posts); err != nil {
		return 0, fmt.Errorf("error writing target: %w", err)
	}
	return len(posts), nil
}

func open(ctx context.Context, log zerolog.Logger, path string) (*persistence.Adapter, repository.Repository) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatal().Err(err).Str("config", path).Msg("Error loading config")
	}

	repo, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("config", path).Msg("Error opening storage")
	}

	codec, err := compression.ForName(cfg.Storage.Compression)
	if err != nil {
		log.Fatal().Err(err).Msg("Error selecting compression")
	}

	return persistence.NewAdapter(repo, cfg.Storage.Key, codec, log.With().Str("config", path).Logger()), repo
}
