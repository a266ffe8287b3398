// Package cli implements the postboard command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/postboard/internal/app"
	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/db"
	"github.com/debemdeboas/postboard/internal/logger"
	"github.com/debemdeboas/postboard/internal/render"
	"github.com/debemdeboas/postboard/internal/repository"
)

// RootOptions holds global flags and the state PersistentPreRunE builds
// from them.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	Config *config.Config
	Logger zerolog.Logger

	// openApp is replaced in tests to run commands against a shared store.
	openApp func(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*app.App, error)
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{openApp: app.Open})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postboard",
		Short: "postboard - a single-user post board",
		Long: `Create, edit and delete short posts with a title, a body and one image.

Posts are kept in a single record on the configured storage backend
(filesystem, SQLite, S3 or memory) and written through on every change.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $"+config.EnvConfigPath+" or "+config.DefaultConfigPath+")")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level from the config file")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func (opts *RootOptions) setup(cmd *cobra.Command) error {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	if path == "" {
		path = config.DefaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	l := logger.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	config.SetLogger(l.With().Str("component", "config").Logger())
	repository.SetLogger(l.With().Str("component", "repository").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	render.SetLogger(l.With().Str("component", "render").Logger())

	opts.Config = cfg
	opts.Logger = l
	return nil
}

// withApp opens the app for the duration of fn and always flushes it.
func (opts *RootOptions) withApp(ctx context.Context, fn func(a *app.App) error) (err error) {
	a, err := opts.openApp(ctx, opts.Config, opts.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func validateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
	}
	return nil
}
