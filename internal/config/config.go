package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Posts   PostsConfig   `yaml:"posts"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
	// "console" for human-readable output, "json" for structured lines.
	Format string `yaml:"format" default:"console"`
}

type SiteConfig struct {
	Name         string `yaml:"name" default:"Simple Blog App"`
	EmptyMessage string `yaml:"empty_message" default:"No posts yet. Add your first blog!"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"127.0.0.1"`
	Port string `yaml:"port" default:"12600"`
	// Upper bound on a form submission, uploaded image included.
	MaxUploadMB int `yaml:"max_upload_mb" default:"10"`
}

type StorageConfig struct {
	// One of ValidBackends.
	Backend string `yaml:"backend" default:"fs"`
	// Directory for the fs backend, database file for sqlite.
	Path string `yaml:"path" default:"./data"`
	// The single key the post collection is persisted under.
	Key         string   `yaml:"key" default:"posts"`
	Compression string   `yaml:"compression" default:"zstd"`
	S3          S3Config `yaml:"s3"`
}

// S3Config holds the bucket location. Credentials are read from the
// environment, never from the config file.
type S3Config struct {
	Bucket   string `yaml:"bucket" default:""`
	Endpoint string `yaml:"endpoint" default:""`
	Region   string `yaml:"region" default:"auto"`
}

type PostsConfig struct {
	// Go reference layout used to stamp Post.Date.
	DateLayout string `yaml:"date_layout" default:"1/2/2006"`
}

type RenderConfig struct {
	SyntaxTheme string `yaml:"syntax_theme" default:"gruvbox"`
	Markdown    bool   `yaml:"markdown" default:"true"`
}

var (
	ValidBackends     = []string{BackendFS, BackendSQLite, BackendS3, BackendMemory}
	ValidCompressions = []string{"zstd", "gzip", "none"}
)

var AppConfig *Config

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return config, nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	AppConfig = config
	return config, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(ValidBackends, c.Storage.Backend) {
		return fmt.Errorf("unsupported storage backend %q: must be one of %v", c.Storage.Backend, ValidBackends)
	}
	if !slices.Contains(ValidCompressions, c.Storage.Compression) {
		return fmt.Errorf("unsupported compression %q: must be one of %v", c.Storage.Compression, ValidCompressions)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	if c.Storage.Backend == BackendS3 && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3 backend requires storage.s3.bucket")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	if c.Posts.DateLayout == "" {
		return fmt.Errorf("posts.date_layout must not be empty")
	}
	return nil
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
