package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/esquery/internal/config"
	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/esquery/internal/db/redis"
	logpkg "github.com/kailas-cloud/esquery/internal/logger"
	"github.com/kailas-cloud/esquery/internal/mapping"
	"github.com/kailas-cloud/esquery/internal/metrics"
	"github.com/kailas-cloud/esquery/internal/repository/querycache"
	searchrepo "github.com/kailas-cloud/esquery/internal/repository/search"
	chiTransport "github.com/kailas-cloud/esquery/internal/transport/chi"
	healthuc "github.com/kailas-cloud/esquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/esquery/internal/usecase/search"
	"github.com/kailas-cloud/esquery/internal/usecase/translate"
	"github.com/kailas-cloud/esquery/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting esquery gateway",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("search_addrs", cfg.Search.Addrs),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	metrics.RegisterSearchMetrics()

	engine, err := elastic.NewStore(elastic.Config{
		Addrs:              cfg.Search.Addrs,
		Username:           cfg.Search.Username,
		Password:           cfg.Search.Password,
		InsecureSkipVerify: cfg.Search.InsecureSkipVerify,
	})
	if err != nil {
		logger.Fatal("Failed to create search engine client", zap.Error(err))
	}

	ctx := context.Background()
	if err := engine.WaitForReady(ctx, time.Duration(cfg.Search.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search engine not ready", zap.Error(err))
	}
	logger.Info("Connected to search engine")

	var searcher db.Searcher = engine
	// Pass a nil interface (not a typed nil pointer) when the cache is off.
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled() {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Duration("ttl", cfg.Cache.TTL()))

		searcher = querycache.New(engine, cache, cfg.Cache.TTL(), metrics.QueryCacheTotal, logger)
		cachePinger = cache
	}

	repo := searchrepo.New(searcher, elastic.Options{
		DefaultSize: cfg.Search.DefaultSize,
		MaxBuckets:  cfg.Search.MaxBuckets,
	})
	searchSvc := searchuc.New(translate.New(mapping.Default{}), repo)
	healthSvc := healthuc.New(engine, cachePinger)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	r := chiTransport.NewRouter(server, logger, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
