package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mandalnilabja/pixelrelay/internal/app"
	"github.com/mandalnilabja/pixelrelay/internal/blob"
	"github.com/mandalnilabja/pixelrelay/internal/config"
	"github.com/mandalnilabja/pixelrelay/internal/provider"
	"github.com/mandalnilabja/pixelrelay/internal/relay"
	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/admin"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler/imageproxy"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware/ratelimit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := config.EnsureConfigFile(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	cfg := config.Load()
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.LogStore)
	if err != nil {
		return fmt.Errorf("failed to open log store: %w", err)
	}
	defer store.Close()

	var rel relay.Relayer
	if cfg.Blob.Enabled() {
		uploader, err := blob.NewS3Uploader(ctx, cfg.Blob)
		if err != nil {
			return fmt.Errorf("failed to configure blob storage: %w", err)
		}
		rel = relay.New(uploader,
			relay.WithTimeout(cfg.Relay.Timeout),
			relay.WithMaxBytes(cfg.Relay.MaxBytes),
		)
	} else {
		logger.Warn("blob storage not configured; upstream image URLs are returned as-is")
	}

	imageProxy, err := imageproxy.New(imageproxy.Options{
		Timeout:       cfg.Proxy.Timeout,
		CacheControl:  cfg.Proxy.CacheControl,
		CacheMaxBytes: cfg.Proxy.CacheMaxBytes,
		CacheItemMax:  cfg.Proxy.CacheItemMaxBytes,
		CacheTTL:      cfg.Proxy.CacheTTL,
		BlockPrivate:  cfg.Proxy.BlockPrivateNetworks,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer imageProxy.Close()

	adminHash, err := adminPasswordHash(cfg.AdminPassword, logger)
	if err != nil {
		return err
	}

	repo := handler.NewRepo(handler.Deps{
		Generator:  provider.NewClient(cfg.Upstream.URL, provider.WithTimeout(cfg.Upstream.Timeout)),
		Relay:      rel,
		Store:      store,
		ImageProxy: imageProxy,
		Defaults:   cfg.Defaults,
		Settings: admin.Settings{
			APIBaseURL:   cfg.APIBaseURL,
			Defaults:     cfg.Defaults,
			LogBackend:   cfg.LogStore.Backend,
			RelayEnabled: rel != nil,
			UpstreamURL:  cfg.Upstream.URL,
		},
		Port:   cfg.Port(),
		Logger: logger,
	})

	router := app.NewRouter(repo, &app.RouterOptions{
		EnableWebUI:       cfg.EnableWebUI,
		Logger:            logger,
		AdminPasswordHash: adminHash,
		GenerateLimiter:   ratelimit.New(cfg.GenerateRateLimit),
		TrustProxy:        cfg.TrustProxy,
	})

	printStartupBanner(cfg)

	srv := app.NewServer(cfg, router, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
