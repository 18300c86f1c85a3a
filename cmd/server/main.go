package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/editgrid/internal/server/config"
	"github.com/iudanet/editgrid/internal/server/handlers"
	"github.com/iudanet/editgrid/internal/server/middleware"
	"github.com/iudanet/editgrid/internal/server/relay"
	"github.com/iudanet/editgrid/internal/server/storage"
	"github.com/iudanet/editgrid/internal/server/storage/postgres"
	"github.com/iudanet/editgrid/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	cfg.RegisterFlags(flag.CommandLine)
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := newLogger(cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	var bus relay.Bus
	if cfg.RedisURL != "" {
		redisBus, err := relay.NewRedisBus(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer redisBus.Close()
		bus = redisBus
		logger.Info("Cross-instance fan-out enabled")
	}

	hub := relay.NewHub(store, bus, relay.Options{SnapshotInterval: cfg.SnapshotInterval}, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute, logger)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Logger:  logger,
			Health:  handlers.NewHealthHandler(logger, Version, hub),
			Rooms:   handlers.NewRoomHandler(logger, hub),
			Limiter: limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// websocket-соединения комнат завершаются вместе с ctx
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("editgrid relay listening", "addr", cfg.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStorage выбирает PostgreSQL, если задан его адрес, иначе SQLite.
func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.SnapshotStorage, error) {
	if cfg.PostgresURL != "" {
		store, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		logger.Info("Using PostgreSQL snapshot storage")
		return store, nil
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
	}
	logger.Info("Using SQLite snapshot storage", "path", cfg.DBPath)
	return store, nil
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func printVersion() {
	fmt.Printf("editgrid relay server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
