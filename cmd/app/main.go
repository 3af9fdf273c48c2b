// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cgn-operator-search/internal/config"
	"cgn-operator-search/internal/domain/ports/repository"
	"cgn-operator-search/internal/infra/api"
	pg "cgn-operator-search/internal/infra/db/postgres"
	"cgn-operator-search/internal/infra/logging"
	"cgn-operator-search/internal/infra/metrics"
	red "cgn-operator-search/internal/infra/redis"
	"cgn-operator-search/internal/infra/sched"
	"cgn-operator-search/internal/infra/worker"
	"cgn-operator-search/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (single node redis, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	codeRepo := pg.NewBucketCodeRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Redis ----
	var codePool repository.CodePool
	if cfg.Redis.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis, !cfg.Runtime.Dev)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr()).Msg("redis")
		}
		defer redisClient.Close()
		codePool = red.NewCodePool(redisClient)
	} else {
		logger.Warn().Msg("redis disabled; every request reserves a single code from postgres")
	}

	// ---- Refill workers ----
	refill := worker.NewPool(cfg.Workers.Refill, logger)
	refill.Start(ctx)

	// ---- Use case ----
	bucketUC := usecase.NewBucketCodeUseCase(codeRepo, codePool, txm, refill, usecase.BucketCodeOptions{
		LockLimit:   cfg.Bucket.CodeLockLimit,
		PushTimeout: cfg.Redis.PushTimeout,
	}, logger)

	// ---- Pool stats ----
	reporter := sched.NewPoolStatsReporter(cfg.Metrics.PoolStatsInterval, sched.PgxPoolStats(pool), logger)
	go func() { _ = reporter.Run(ctx) }()

	// ---- HTTP server ----
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           api.NewRouter(bucketUC, cfg.HTTP.RequestTimeout, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Int("code_lock_limit", cfg.Bucket.CodeLockLimit).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// drain pending cache refills before the redis client closes
	refill.Stop()
	cancel()
}
