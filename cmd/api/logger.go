package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mandalnilabja/pixelrelay/internal/config"
	"github.com/mandalnilabja/pixelrelay/internal/version"
)

// setupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// Unknown values fall back to info and text.
func setupLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printStartupBanner(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "pixelrelay %s - text-to-image relay\n", version.Version)
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	if cfg.EnableWebUI {
		fmt.Fprintf(os.Stderr, "Web UI:     http://localhost%s/\n", cfg.ServerPort)
	}
	fmt.Fprintf(os.Stderr, "Generate:   http://localhost%s/api/generate\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Admin API:  http://localhost%s/api/admin/\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Upstream:   %s\n", cfg.Upstream.URL)
	fmt.Fprintf(os.Stderr, "Log store:  %s (%d per stream)\n", cfg.LogStore.Backend, cfg.LogStore.Capacity)
	fmt.Fprintf(os.Stderr, "Data:       %s\n", config.DataDir())
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "\n")
}
