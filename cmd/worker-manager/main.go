// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"msme-insights/internal/analytics"
	"msme-insights/internal/common/config"
	"msme-insights/internal/common/database"
	"msme-insights/internal/common/logger"
	"msme-insights/internal/common/observability"
	"msme-insights/internal/extractor"
	"msme-insights/internal/jobs"
	"msme-insights/internal/notify"
	"msme-insights/internal/store"
	"msme-insights/pkg/registry"

	xa "msme-insights/internal/workers/analytics/export-analytics"
	ea "msme-insights/internal/workers/extraction/extract-attributes"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	reg, err := registry.LoadRegistry("configs/registry.json")
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	for _, taskType := range []string{ea.TaskType, xa.TaskType} {
		if _, err := reg.FindByTaskType(taskType); err != nil {
			zapLog.Fatal("activity registry incomplete", zap.Error(err))
		}
	}

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

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

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional search index sink) ---
	var indexer jobs.Indexer
	if cfg.Analytics.SearchIndex.Enabled {
		var esClient *database.ElasticsearchClient
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
		indexer = store.NewIndexer(esClient.Client, cfg.Analytics.SearchIndex.Index)
		zapLog.Info("Elasticsearch connected successfully",
			zap.String("index", cfg.Analytics.SearchIndex.Index))
	}

	// --- Init AWS notification clients (optional) ---
	var notifier jobs.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		var emailSender notify.EmailSender
		var smsPublisher notify.TopicPublisher

		if cfg.Notifications.Email.Enabled {
			sender, err := notify.NewEmailSender(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("SES client initialization failed", zap.Error(err))
			}
			emailSender = sender
		}
		if cfg.Notifications.SMS.Enabled {
			publisher, err := notify.NewTopicPublisher(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("SNS client initialization failed", zap.Error(err))
			}
			smsPublisher = publisher
		}
		notifier = notify.NewNotifier(cfg.Notifications, emailSender, smsPublisher, log)
		zapLog.Info("Failure notifier initialized")
	}

	// --- Extraction pipeline wiring ---
	llmExtractor := extractor.New(extractor.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Timeout:    time.Duration(cfg.LLM.Timeout) * time.Millisecond,
		MaxRetries: cfg.LLM.MaxRetries,
	}, &extractorLoggerAdapter{log})

	manager := jobs.NewManager(
		store.NewConversationStore(pg.DB),
		store.NewJobStore(pg.DB),
		store.NewAttributeStore(pg.DB),
		store.NewInterestStore(pg.DB),
		llmExtractor,
		indexer,
		notifier,
		log,
	)

	// --- Analytics wiring ---
	summaryCache := analytics.NewSummaryCache(
		redisClient.Client,
		time.Duration(cfg.Analytics.CacheTTLSeconds)*time.Second,
		log,
	)
	aggregator := analytics.NewAggregator(pg.DB, summaryCache, log)
	exporter := analytics.NewExporter(pg.DB, log)

	// --- Register Workers ---
	if cfg.Workers[ea.TaskType].Enabled {
		handler := ea.NewHandler(
			&ea.Config{
				Timeout:    time.Duration(cfg.Workers[ea.TaskType].Timeout) * time.Millisecond,
				MaxRetries: cfg.Workers[ea.TaskType].MaxRetries,
			},
			manager, obs, log,
		)
		startWorker(zeebeClient, ea.TaskType, cfg.Workers[ea.TaskType], handler.Handle, zapLog)
	}

	if cfg.Workers[xa.TaskType].Enabled {
		handler := xa.NewHandler(
			&xa.Config{
				OutputDir: cfg.Export.OutputDir,
				Timeout:   time.Duration(cfg.Workers[xa.TaskType].Timeout) * time.Millisecond,
			},
			exporter, log,
		)
		startWorker(zeebeClient, xa.TaskType, cfg.Workers[xa.TaskType], handler.Handle, zapLog)
	}

	zapLog.Info("All workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.MetricsPort)
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		analytics.NewHTTPHandler(aggregator, log).Register(http.DefaultServeMux)
		zapLog.Info("Health/Metrics server listening on " + addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// extractorLoggerAdapter bridges the shared logger to the extractor's local
// Logger interface.
type extractorLoggerAdapter struct {
	logger.Logger
}

func (a *extractorLoggerAdapter) WithFields(fields map[string]interface{}) extractor.Logger {
	return &extractorLoggerAdapter{a.Logger.WithFields(fields)}
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
