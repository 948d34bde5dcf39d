package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/fragment"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/site"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOpts are the flags every command shares.
type globalOpts struct {
	envFile string
	docs    string
}

func rootCmd() *cobra.Command {
	var opts globalOpts

	cmd := &cobra.Command{
		Use:           "docnav",
		Short:         "Inspect, check and serve generated documentation navigation trees",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.PersistentFlags().StringVar(&opts.docs, "docs", "", "Documentation build directory (overrides DOCNAV_SOURCE and DOCNAV_DOCS_DIR)")

	cmd.AddCommand(serveCmd(&opts))
	cmd.AddCommand(checkCmd(&opts))
	cmd.AddCommand(dumpCmd(&opts))
	cmd.AddCommand(resolveCmd(&opts))
	cmd.AddCommand(classifyCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(renderCmd(&opts))
	cmd.AddCommand(versionCmd())

	return cmd
}

func loadConfig(opts *globalOpts) (config.Config, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.docs != "" {
		cfg.Source = config.SourceDir
		cfg.DocsDir = opts.docs
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.Level()
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

func openSource(cfg config.Config) (fragment.Source, func(), error) {
	switch cfg.Source {
	case config.SourceHTTP:
		src := fragment.NewHTTPSource(cfg.DocsURL, cfg.FetchTimeout)
		return src, src.Close, nil
	case config.SourceS3:
		src, err := fragment.NewS3Source(fragment.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	default:
		return fragment.NewDirSource(cfg.DocsDir), func() {}, nil
	}
}

// env is what most commands need: configuration, a logger, the source of
// generated files and the loaded site.
type env struct {
	cfg   config.Config
	log   *slog.Logger
	src   fragment.Source
	site  *site.Site
	close func()
}

// setup loads everything a command needs. Command logs go to stderr so that
// stdout carries only the command's output.
func setup(ctx context.Context, opts *globalOpts) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg, os.Stderr)
	src, closeSrc, err := openSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	s, err := site.Load(ctx, src, log)
	if err != nil {
		closeSrc()
		return nil, err
	}
	return &env{cfg: cfg, log: log, src: src, site: s, close: closeSrc}, nil
}

func (e *env) expander() (*fragment.Expander, error) {
	return fragment.NewExpander(e.src, e.cfg.FragmentCacheSize, e.log)
}

// load reads the current build from the source again, with a fresh
// expander so no fragment of the previous build is served.
func (e *env) load(ctx context.Context) (*site.Site, *fragment.Expander, error) {
	s, err := site.Load(ctx, e.src, e.log)
	if err != nil {
		return nil, nil, err
	}
	exp, err := e.expander()
	if err != nil {
		return nil, nil, err
	}
	return s, exp, nil
}

// materialize loads every lazy fragment under root. Missing fragments are
// logged and left as leaves.
func (e *env) materialize(ctx context.Context, root *navtree.Node) (*navtree.Node, error) {
	exp, err := e.expander()
	if err != nil {
		return nil, err
	}
	full, err := exp.Materialize(ctx, root, e.cfg.CheckWorkers)
	if full == nil {
		return nil, fmt.Errorf("expand tree: %w", err)
	}
	if err != nil {
		e.log.Warn("some fragments could not be loaded", "error", err)
	}
	return full, nil
}
