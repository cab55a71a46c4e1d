package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryan-buckman/corvettetrader/internal/config"
	"github.com/bryan-buckman/corvettetrader/internal/feed"
	"github.com/bryan-buckman/corvettetrader/internal/logging"
	"github.com/bryan-buckman/corvettetrader/internal/server"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	settings := cfg.Settings()

	logger, err := logging.New(logging.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Fields: map[string]string{"service": "corvettetrader"},
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := feed.Open(ctx, settings.Source, settings.Location, feed.Options{
		HTTPClient: &http.Client{Timeout: settings.FetchTimeout},
		AWSRegion:  settings.AWSRegion,
		S3Endpoint: settings.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("open listings source: %w", err)
	}
	defer closeSource()

	loader := feed.NewLoader(source, logger, settings.FetchTimeout)
	catalog := feed.NewCatalog(loader, logger)

	// A failed first load is shown on the page; the server still starts.
	if _, err := catalog.Reload(ctx); err != nil {
		logger.Warn("Initial load failed", zap.Error(err))
	}

	poller := feed.NewPoller(catalog, settings.ReloadInterval, settings.FetchTimeout, logger)
	srv, err := server.New(catalog, poller, logger, server.Options{
		SiteURL:       settings.SiteURL,
		ReloadTimeout: settings.FetchTimeout,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(settings.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
