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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"showroom-workers/internal/catalog"
	"showroom-workers/internal/common/camunda"
	"showroom-workers/internal/common/config"
	"showroom-workers/internal/common/database"
	"showroom-workers/internal/common/logger"
	"showroom-workers/internal/common/observability"
	"showroom-workers/pkg/registry"
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

// backends holds the storage clients. Redis and Elasticsearch are optional:
// the survey cache and the car search degrade without them.
type backends struct {
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

func connectBackends(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*backends, error) {
	b := &backends{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return retryWithBackoff(func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			b.pg = pg
			return nil
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	})

	g.Go(func() error {
		err := retryWithBackoff(func() error {
			rc, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				rc.Close()
				return err
			}
			b.redis = rc
			return nil
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, running without cache", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		err := retryWithBackoff(func() error {
			ec, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := ec.Ping(ctx); err != nil {
				return err
			}
			b.es = ec
			return nil
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, car search uses the static catalog", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *backends) Close(zapLog *zap.Logger) {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			zapLog.Error("Error closing Redis", zap.Error(err))
		}
	}
	if b.pg != nil {
		if err := b.pg.Close(); err != nil {
			zapLog.Error("Error closing PostgreSQL", zap.Error(err))
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	}, log)
	defer obs.Shutdown()

	ctx := context.Background()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	if missing := reg.Missing(taskTypes()); len(missing) > 0 {
		zapLog.Warn("workers without a registry entry run unvalidated", zap.Strings("taskTypes", missing))
	}

	// --- Init Zeebe Client ---
	zeebe, err := camunda.NewClient(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Init storage ---
	store, err := connectBackends(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("storage init failed", zap.Error(err))
	}
	zapLog.Info("Storage connected",
		zap.Bool("redis", store.redis != nil),
		zap.Bool("elasticsearch", store.es != nil),
	)

	cat := catalog.Default()
	if store.es != nil && cfg.Catalog.SeedOnStart {
		seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		n, err := catalog.Seed(seedCtx, store.es.Client, cfg.Catalog.Index, cat.All())
		cancel()
		if err != nil {
			zapLog.Warn("catalog seed failed", zap.Error(err))
		} else {
			zapLog.Info("catalog seeded", zap.String("index", cfg.Catalog.Index), zap.Int("documents", n))
		}
	}

	deps := newDependencies(cfg, store, cat, log)

	// --- Register Workers ---
	var workers []*camunda.Worker
	for _, def := range workerDefinitions(cfg, deps) {
		wcfg := config.GetWorkerConfig(cfg, def.taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", def.taskType))
			continue
		}

		handler, err := reg.Guard(def.taskType, def.handle, log)
		if err != nil {
			zapLog.Fatal("input schema compile failed", zap.String("taskType", def.taskType), zap.Error(err))
		}

		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      def.taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, obs, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:    cfg.Observability.HTTPAddress,
		Handler: healthMux(zeebe, store),
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
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

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}

	var stopGroup errgroup.Group
	for _, w := range workers {
		w := w
		stopGroup.Go(func() error {
			w.Stop()
			return nil
		})
	}
	_ = stopGroup.Wait()

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	store.Close(zapLog)

	zapLog.Info("Worker manager stopped gracefully")
}

type pinger interface {
	Ping(ctx context.Context) error
}

type zeebeHealth struct {
	client *camunda.Client
}

func (z zeebeHealth) Ping(ctx context.Context) error {
	return z.client.HealthCheck(ctx)
}

func healthMux(zeebe *camunda.Client, store *backends) *http.ServeMux {
	checks := map[string]pinger{
		"zeebe":    zeebeHealth{client: zeebe},
		"postgres": store.pg,
	}
	if store.redis != nil {
		checks["redis"] = store.redis
	}
	if store.es != nil {
		checks["elasticsearch"] = store.es
	}
	return newHealthMux(checks)
}

func newHealthMux(checks map[string]pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		writeJSON(w, status, map[string]interface{}{
			"status": state,
			"checks": results,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
