// cmd/search-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"expert-search/internal/common/camunda"
	"expert-search/internal/common/config"
	"expert-search/internal/common/database"
	"expert-search/internal/common/logger"
	"expert-search/internal/common/observability"
	"expert-search/internal/search/orchestrator"
	"expert-search/internal/search/sources"

	es "expert-search/internal/workers/search/expert-search"
	ec "expert-search/internal/workers/search/extract-constraints"
	ma "expert-search/internal/workers/search/match-availability"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting search worker...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("ranker", cfg.Search.Ranker),
	)

	obs := observability.New(cfg.App.Name, zapLog)

	ctx := context.Background()

	// --- Init Zeebe Client ---
	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.Timeout),
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 10, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
	}, zapLog)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	backends := sources.Backends{Postgres: pg.DB}

	// --- Init Elasticsearch with retry (elasticsearch ranker only) ---
	var esClient *database.ElasticsearchClient
	if cfg.Search.Ranker == config.RankerElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if ok, err := esClient.IndexExists(ctx, cfg.Search.IndexName); err != nil || !ok {
			zapLog.Warn("experts index not available yet, ranked searches will fail until it exists",
				zap.String("index", cfg.Search.IndexName),
				zap.Error(err),
			)
		}
		backends.Elasticsearch = esClient.Client
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Redis with retry (ranked cache only) ---
	var rdb *database.RedisClient
	if cfg.Search.CacheTTL > 0 {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		backends.Redis = rdb.Client
		zapLog.Info("Redis connected successfully")
	}

	// --- Search stack ---
	set, err := sources.Build(cfg, backends, log)
	if err != nil {
		zapLog.Fatal("search sources misconfigured", zap.Error(err))
	}

	orch, err := orchestrator.New(set.Ranker, set.Directory, set.Directory,
		orchestrator.WithLogger(log),
		orchestrator.WithObservability(obs),
	)
	if err != nil {
		zapLog.Fatal("orchestrator init failed", zap.Error(err))
	}

	// --- Register Workers ---
	var workers []worker.JobWorker
	register := func(w worker.JobWorker) {
		if w != nil {
			workers = append(workers, w)
		}
	}

	{
		wcfg := config.GetWorkerConfig(cfg, es.TaskType)
		handler := es.NewHandler(&es.Config{Timeout: config.GetDuration(wcfg.Timeout)}, orch, obs, log)
		register(camunda.StartWorker(zeebe.GetClient(), es.TaskType, wcfg, handler.Handle, zapLog))
	}
	{
		wcfg := config.GetWorkerConfig(cfg, ec.TaskType)
		handler := ec.NewHandler(&ec.Config{Timeout: config.GetDuration(wcfg.Timeout)}, log)
		register(camunda.StartWorker(zeebe.GetClient(), ec.TaskType, wcfg, handler.Handle, zapLog))
	}
	{
		wcfg := config.GetWorkerConfig(cfg, ma.TaskType)
		mcfg := ma.LoadConfig()
		mcfg.Timeout = config.GetDuration(wcfg.Timeout)
		handler := ma.NewHandler(mcfg, log)
		register(camunda.StartWorker(zeebe.GetClient(), ma.TaskType, wcfg, handler.Handle, zapLog))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failures := map[string]string{}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			failures["zeebe"] = err.Error()
		}
		if err := pg.Ping(checkCtx); err != nil {
			failures["postgres"] = err.Error()
		}
		if esClient != nil {
			if err := esClient.Ping(checkCtx); err != nil {
				failures["elasticsearch"] = err.Error()
			}
		}
		if rdb != nil {
			if err := rdb.Ping(checkCtx); err != nil {
				failures["redis"] = err.Error()
			}
		}

		if len(failures) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", failures)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Search worker stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, failures map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if len(failures) > 0 {
		body["failures"] = failures
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
