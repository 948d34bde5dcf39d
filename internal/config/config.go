package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "DOCNAV"

// Source kinds for the generated documentation files.
const (
	SourceDir  = "dir"
	SourceHTTP = "http"
	SourceS3   = "s3"
)

type Config struct {
	Port string `envconfig:"PORT" default:"8090"`

	// Auth. Empty disables bearer auth on /api routes.
	APIKey string `envconfig:"API_KEY"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Where navtreedata.js and its fragments live
	Source  string `envconfig:"SOURCE" default:"dir"`
	DocsDir string `envconfig:"DOCS_DIR" default:"./html"`
	DocsURL string `envconfig:"DOCS_URL"`
	S3      S3     `envconfig:"S3"`

	// Fragment loading
	FragmentCacheSize int           `envconfig:"FRAGMENT_CACHE_SIZE" default:"256"`
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`

	// Link checker
	CheckWorkers int `envconfig:"CHECK_WORKERS" default:"8"`
}

// S3 holds object storage settings, read from DOCNAV_S3_*.
type S3 struct {
	Endpoint  string `envconfig:"ENDPOINT"`
	Region    string `envconfig:"REGION"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	Bucket    string `envconfig:"BUCKET"`
	Prefix    string `envconfig:"PREFIX"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"true"`
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))

	if cfg.FragmentCacheSize <= 0 {
		cfg.FragmentCacheSize = 256
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.CheckWorkers <= 0 {
		cfg.CheckWorkers = 8
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Source {
	case SourceDir:
		if c.DocsDir == "" {
			return fmt.Errorf("%s_DOCS_DIR is required for source %q", Prefix, c.Source)
		}
	case SourceHTTP:
		if c.DocsURL == "" {
			return fmt.Errorf("%s_DOCS_URL is required for source %q", Prefix, c.Source)
		}
	case SourceS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("%s_S3_ENDPOINT and %s_S3_BUCKET are required for source %q", Prefix, Prefix, c.Source)
		}
	default:
		return fmt.Errorf("unknown source %q (want %s, %s or %s)", c.Source, SourceDir, SourceHTTP, SourceS3)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q (want json or text)", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
