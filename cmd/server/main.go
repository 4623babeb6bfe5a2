package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"wanlens/internal/codec"
	"wanlens/internal/config"
	"wanlens/internal/correlate"
	"wanlens/internal/handler"
	"wanlens/internal/hub"
	"wanlens/internal/metrics"
	"wanlens/internal/repository/sqlite"
	"wanlens/internal/service"
	"wanlens/internal/source"
	"wanlens/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wanlens-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Command line flags
	configPath := flag.String("config", "", "Config file path (default: search "+config.EnvConfigPath+", ./"+config.ConfigFileName+", ~/.config/wanlens)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	if path != "" {
		logger.Info("loaded config", "path", path)
	} else {
		logger.Info("no config file found, using defaults")
	}
	logger.Debug(cfg.Summary())

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	logger.Info("database opened", "path", cfg.Database.Path)

	reg := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Initialize event bus and SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New(logger)
	reg.RegisterSSEClients(sseHub.ClientCount)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sseHub.Run(ctx)
	}()

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	// Snapshot sources are optional; without them only uploads feed the service
	var sources *source.Set
	if cfg.Sources.Serviceability.Enabled() {
		sources, err = source.FromConfig(cfg, logger)
		if err != nil {
			return fmt.Errorf("configure sources: %w", err)
		}
		sources.Observer = func(doc codec.Document, kind string, d time.Duration, err error) {
			reg.RecordSourceFetch(string(doc), kind, d, err)
		}
	} else {
		logger.Warn("no serviceability source configured, waiting for uploads")
	}

	svc := service.NewTopologyService(service.Options{
		Repo:    repo,
		Sources: sources,
		Correlator: correlate.New(correlate.Options{
			DriftThresholdPct: cfg.Correlation.DriftThresholdPct,
			Logger:            logger,
		}),
		EventBus:   eventBus,
		Metrics:    reg,
		Logger:     logger,
		RetainRuns: cfg.Database.RetainRuns,
	})

	if sources != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Run(ctx, cfg.Refresh.Interval.Duration())
		}()

		if paths := cfg.FilePaths(); cfg.Refresh.Watch && len(paths) > 0 {
			w := watcher.New(paths, func(changed []string) {
				if _, _, err := svc.Refresh(ctx, service.TriggerWatch); err != nil && ctx.Err() == nil {
					logger.Warn("refresh after file change failed", "error", err)
				}
			}, logger).WithDebounce(cfg.Refresh.Debounce.Duration())

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("file watcher stopped", "error", err)
				}
			}()
		}
	}

	// Setup routes
	router := handler.NewRouter(handler.NewTopologyHandler(svc, logger), handler.RouterOptions{
		Events:     sseHub,
		Metrics:    reg,
		CORSOrigin: cfg.Server.CORSOrigin,
		Logger:     logger,
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			stop()
			return fmt.Errorf("server: %w", err)
		}
	}

	logger.Info("shutting down server")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	wg.Wait()
	eventBus.Unsubscribe(eventChan)
	close(eventChan)

	logger.Info("server stopped")
	return nil
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
