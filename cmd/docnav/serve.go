package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/api"
)

func serveCmd(opts *globalOpts) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the navigation tree over HTTP",
		Long: `Serve the navigation tree over HTTP.

Send SIGHUP or POST /api/reload after a new documentation build to load it
without restarting; fragment caches start empty for the new build.

Environment variables (prefix DOCNAV_):
  PORT                  Listen port (default: 8090)
  API_KEY               Bearer token for /api routes (default: none)
  SOURCE                dir, http or s3 (default: dir)
  DOCS_DIR              Build directory for source dir (default: ./html)
  DOCS_URL              Base URL for source http
  S3_*                  ENDPOINT, REGION, ACCESS_KEY, SECRET_KEY, BUCKET, PREFIX, USE_SSL
  FRAGMENT_CACHE_SIZE   Decoded fragments kept in memory (default: 256)
  FETCH_TIMEOUT         HTTP source timeout (default: 15s)
  LOG_LEVEL, LOG_FORMAT debug|info|warn|error, json|text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides DOCNAV_PORT)")
	return cmd
}

func runServe(opts *globalOpts, port string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := setup(ctx, opts)
	if err != nil {
		return err
	}
	defer e.close()
	if port != "" {
		e.cfg.Port = port
	}

	exp, err := e.expander()
	if err != nil {
		return err
	}
	srv := api.NewServer(e.site, exp, e.log, e.cfg)
	srv.SetLoader(e.load)

	httpServer := &http.Server{
		Addr:         ":" + e.cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Reload on SIGHUP.
	go func() {
		hupCh := make(chan os.Signal, 1)
		signal.Notify(hupCh, syscall.SIGHUP)
		defer signal.Stop(hupCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hupCh:
				if err := srv.Reload(ctx); err != nil {
					e.log.Error("reload failed, keeping current build", "error", err)
				}
			}
		}
	}()

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		e.log.Info("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	e.log.Info("starting docnav", "port", e.cfg.Port, "source", e.cfg.Source)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
