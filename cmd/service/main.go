// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github-cve-monitor/internal/api"
	"github-cve-monitor/internal/blacklist"
	"github-cve-monitor/internal/config"
	"github-cve-monitor/internal/enrich"
	"github-cve-monitor/internal/github"
	"github-cve-monitor/internal/message"
	"github-cve-monitor/internal/metrics"
	"github-cve-monitor/internal/monitor"
	"github-cve-monitor/internal/notify"
	"github-cve-monitor/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Open the store and apply migrations
	st, err := store.New(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database ready", "path", cfg.DBPath)

	// 5. Load policy and template configuration (both degrade, never abort)
	bl := blacklist.Load(cfg.BlacklistPath, logger)

	tmpl, err := message.Load(cfg.TemplatePath)
	if err != nil {
		logger.Error("Failed to load notification template, using built-in default", "path", cfg.TemplatePath, "error", err)
		tmpl = message.Default()
	}

	if cfg.GithubToken == "" {
		logger.Warn("GITHUB_TOKEN not set, search requests are unauthenticated and rate limited")
	}

	// 6. Initialize application components
	m := metrics.New()
	ghClient := github.NewClient(cfg.GithubToken, logger)
	overviews := enrich.NewCVEClient(cfg.CVEAPIURL, logger)
	var translator notify.Translator
	if cfg.TranslateEnabled {
		translator = enrich.NewTranslator(cfg.TranslateURL, cfg.TranslateDelay, logger)
	}
	push := notify.NewServerChan(cfg.ServerChanKey)
	notifier := notify.NewNotifier(push, overviews, translator, tmpl, m, logger)
	mon := monitor.New(st, ghClient, bl, notifier, m, logger, cfg.SearchTerm, cfg.PollInterval)

	// 7. Run one cron-style batch, or serve continuously
	if cfg.RunOnce {
		logger.Info("Running single poll cycle")
		mon.RunCycle(ctx)
		return nil
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.NewRouter(st, m, logger)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		mon.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
