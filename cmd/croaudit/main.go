package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/croaudit/analysis"
	"github.com/use-agent/croaudit/api"
	"github.com/use-agent/croaudit/cleaner"
	"github.com/use-agent/croaudit/config"
	"github.com/use-agent/croaudit/llm"
	"github.com/use-agent/croaudit/prompt"
	"github.com/use-agent/croaudit/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("croaudit starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"model", cfg.LLM.Model,
	)

	// ── 3. Build the pipeline ───────────────────────────────────────
	extractor, err := cleaner.NewExtractor(cleaner.DefaultRules())
	if err != nil {
		slog.Error("invalid extraction rules", "error", err)
		os.Exit(1)
	}

	model := llm.NewClient(cfg.LLM, llm.WithHTTPClient(&http.Client{}))
	if !model.Configured() {
		// The key is read per request, so it can still be provided later.
		slog.Warn("model API key not configured; /analyze will return 503 until it is set",
			"env", cfg.LLM.APIKeyEnv,
		)
	}

	pipeline := &analysis.Pipeline{
		Fetcher:       scraper.NewFetcher(cfg.Fetch),
		Extractor:     extractor,
		Builder:       prompt.NewBuilder(cfg.Analyze.MaxTextLength),
		Model:         model,
		MinTextLength: cfg.Analyze.MinTextLength,
	}

	// ── 4. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(pipeline, model, cfg, time.Now())

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("croaudit stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
