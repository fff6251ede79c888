package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/backend"
	"bilancio/internal/cache"
	"bilancio/internal/config"
	apphttp "bilancio/internal/http"
	applog "bilancio/internal/log"
)

func main() {
	// .env is for local development; missing files are fine.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(applog.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("failed to create backend", applog.FieldError, err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	// Redis when configured, in-process LRU otherwise.
	var summaryCache cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL, cfg.SummaryCacheTTL)
		if err != nil {
			logger.Warn("failed to connect to redis, falling back to in-process cache", applog.FieldError, err)
			summaryCache = cache.NewLRU(256, cfg.SummaryCacheTTL)
		} else {
			defer redisCache.Close()
			summaryCache = redisCache
			logger.Info("using redis summary cache")
		}
	} else {
		summaryCache = cache.NewLRU(256, cfg.SummaryCacheTTL)
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Store, summaryCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting bilancio server",
		"port", cfg.Port,
		"backend", cfg.Backend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", applog.FieldError, err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
