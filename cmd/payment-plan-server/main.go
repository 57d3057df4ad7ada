package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/payment-plan/internal/config"
	"github.com/iwvelando/payment-plan/internal/observability"
	"github.com/iwvelando/payment-plan/internal/planner"
	"github.com/iwvelando/payment-plan/internal/report"
	"github.com/iwvelando/payment-plan/internal/server"
	"github.com/iwvelando/payment-plan/internal/store"
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	migrateDown := flag.Bool("migrate-down", false, "roll back every database migration and exit")
	flag.Parse()

	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load .env\", \"error\": \"%v\"}\n", err)
		return
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}
	cfg.ApplyEnv(os.Getenv)

	logger, err := observability.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	if *migrateDown {
		if err := store.RunMigrationsDown(cfg.Storage.DatabaseURL); err != nil {
			logger.Fatal("failed to roll back migrations",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Info("rolled back migrations", zap.String("op", "main"))
		return
	}

	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plans, cleanup, err := openStore(ctx, cfg.Storage, metrics, logger)
	if err != nil {
		logger.Fatal("failed to open plan storage",
			zap.String("op", "main"),
			zap.String("driver", cfg.Storage.Driver),
			zap.Error(err),
		)
	}
	defer cleanup()

	var reports *report.Client
	if cfg.Report.BaseURL != "" {
		reports = report.NewClient(report.Options{
			BaseURL:    cfg.Report.BaseURL,
			Timeout:    cfg.Report.Timeout,
			ReadyDelay: cfg.Report.ReadyDelay,
			Recorder:   metrics,
			Logger:     logger,
		})
	} else {
		logger.Warn("no report service configured, report routes are disabled",
			zap.String("op", "main"),
		)
	}

	handler := server.NewHandler(server.Options{
		Logger:        logger,
		MaxUploadSize: cfg.UploadSizeBytes(),
		Version:       version,
		Planner:       planner.New(logger),
		Store:         plans,
		Reports:       reports,
		Metrics:       metrics,
	})

	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal", zap.String("op", "main"))
	case err := <-errCh:
		logger.Error("HTTP server error", zap.String("op", "main"), zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.String("op", "main"), zap.Error(err))
	}
	if reports != nil {
		reports.Wait()
	}
	logger.Info("payment-plan server stopped", zap.String("op", "main"))
}

// openStore builds the configured store, fronted by Redis when an address is
// set. cleanup releases every connection opened here.
func openStore(ctx context.Context, cfg config.StorageConfig, metrics *observability.Metrics, logger *zap.Logger) (store.Store, func(), error) {
	var (
		plans    store.Store
		closers  []func()
		teardown = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	)

	switch cfg.Driver {
	case config.StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("postgres storage needs a database url")
		}
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		plans = store.NewPostgres(pool, logger)
	default:
		plans = store.NewMemory(nil)
	}

	if cfg.RedisAddr != "" {
		cache := store.NewRedisCache(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := cache.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = cache.Close()
			teardown()
			return nil, nil, fmt.Errorf("redis at %s: %w", cfg.RedisAddr, err)
		}
		closers = append(closers, func() { _ = cache.Close() })
		plans = store.NewCachedStore(plans, cache, cfg.CacheTTL, metrics, logger)
	}

	return plans, teardown, nil
}
