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
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to a .yaml or .toml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search server",
		"port", cfg.Server.Port,
		"search_mode", cfg.Search.Mode,
		"workers", cfg.Search.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	engine, err := indexer.NewEngine(cfg.Indexer, m)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	exec, err := executor.New(engine, cfg.Search, m)
	if err != nil {
		slog.Error("failed to create executor", "error", err)
		os.Exit(1)
	}

	var (
		searcher    handler.Searcher   = exec
		queueSource analytics.Searcher = exec
		queryCache  *cache.CachedSearcher
		redisClient *pkgredis.Client
		cacheStore  cache.Store
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer redisClient.Close()
			cacheStore = redisClient
			slog.Info("redis search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	if cacheStore == nil && cfg.Search.LocalCacheSize > 0 {
		cacheStore = cache.NewMemoryStore(cfg.Search.LocalCacheSize, cfg.Redis.CacheTTL)
		slog.Info("in-process search cache enabled", "size", cfg.Search.LocalCacheSize, "ttl", cfg.Redis.CacheTTL)
	}
	if cacheStore != nil {
		queryCache = cache.New(exec, engine, cacheStore, cfg.Redis, m)
		searcher = queryCache
		queueSource = queryCache
	} else {
		slog.Info("search caching disabled")
	}

	queueOpts := []analytics.QueueOption{analytics.WithGauge(m.NoResultRequests)}
	if cfg.Kafka.AnalyticsEnabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{})
		collector.Start(ctx)
		defer collector.Close()
		queueOpts = append(queueOpts, analytics.WithCollector(collector))
		slog.Info("analytics events enabled", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}
	queue := analytics.NewRequestQueue(queueSource, cfg.Requests.Window, queueOpts...)

	if cfg.Kafka.IngestEnabled {
		ingest := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(engine)))
		go func() {
			if err := ingest.Start(ctx); err != nil {
				slog.Error("ingest consumer stopped", "error", err)
			}
		}()
		slog.Info("document ingest enabled", "topic", cfg.Kafka.Topics.DocumentIngest)
	}

	checker := health.NewChecker(0)
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents", engine.DocumentCount()),
		}
	})
	if cfg.Redis.Addr != "" {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if redisClient == nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
			}
			return health.PingCheck(redisClient.Ping, health.StatusDegraded)(ctx)
		})
	}

	mux := http.NewServeMux()
	handler.New(engine, exec, searcher, queue, queryCache, m).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	shutdownMetrics := func(context.Context) error { return nil }
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port == 0 {
			mux.Handle("GET /metrics", metrics.Handler(reg))
		} else {
			shutdownMetrics = metrics.StartServer(cfg.Metrics.Port, reg)
		}
	}

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.AccessLog(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}()

	slog.Info("search server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// Shutdown returns once in-flight handlers finish; the deferred
	// collector and producer closes must run after that.
	<-shutdownDone

	slog.Info("search server stopped")
}
