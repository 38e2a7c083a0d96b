// cmd/generation-manager/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"contentgen-engine/internal/catalog"
	"contentgen-engine/internal/common/config"
	"contentgen-engine/internal/common/database"
	"contentgen-engine/internal/common/logger"
	"contentgen-engine/internal/common/observability"
	"contentgen-engine/internal/engine/compatibility"
	"contentgen-engine/internal/engine/recommendation"
	"contentgen-engine/internal/generation/builder"
	"contentgen-engine/internal/generation/client"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
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
	templateFlag := flag.String("template", "", "template id to generate with")
	styleFlag := flag.String("style", "", "style profile id to generate with")
	paramsFlag := flag.String("params", "", "comma-separated key=value generation parameters")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting generation manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("generation-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Catalog source ---
	var source catalog.Source
	if cfg.Catalog.Source == "postgres" {
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
		source = catalog.NewPostgresSource(pg.GetDB())
	} else {
		source = catalog.NewFileSource(cfg.Catalog.Path)
	}

	catalogSvc := catalog.NewService(source, config.GetDuration(cfg.Catalog.CacheTTL), log)
	cat, err := catalogSvc.Catalog(ctx)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}

	// --- Redis (recommendation cache) ---
	var rdb *redis.Client
	if cfg.Recommendation.CacheEnabled {
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
		rdb = redisClient.GetClient()
	}

	// --- Engine wiring ---
	matrix := compatibility.NewMatrix(cat.Compatibility)

	recCfg := recommendation.LoadConfig()
	recCfg.CacheEnabled = cfg.Recommendation.CacheEnabled
	recCfg.CacheTTL = config.GetDuration(cfg.Recommendation.CacheTTL)
	engine := recommendation.NewEngine(recCfg, matrix, rdb, log)

	reqBuilder := builder.NewBuilder(catalogSvc, log)
	jobClient := client.NewClient(client.FromAppConfig(cfg), log, obs)

	// Pre-rank every template so first selections hit the cache warm.
	for _, tpl := range cat.Templates {
		engine.Recommend(ctx, tpl.ID, recommendation.FilterRecommended, cat)
	}
	zapLog.Info("recommendation cache warmed", zap.Int("templates", len(cat.Templates)))

	// --- Metrics endpoint ---
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})
		go func() {
			zapLog.Info("metrics endpoint listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				zapLog.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// One-shot generation run when invoked with flags.
	if *templateFlag != "" || *styleFlag != "" {
		runGeneration(ctx, zapLog, reqBuilder, jobClient, *templateFlag, *styleFlag, *paramsFlag)
		return
	}

	zapLog.Info("generation manager ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutting down")
	jobClient.Cancel()
}

// runGeneration submits one request and follows it to a terminal state,
// logging progress along the way.
func runGeneration(ctx context.Context, zapLog *zap.Logger, reqBuilder *builder.Builder, jobClient *client.Client, templateID, styleID, params string) {
	raw := map[string]interface{}{
		"template": templateID,
		"style":    styleID,
	}
	for _, pair := range strings.Split(params, ",") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			raw[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	req, err := reqBuilder.Build(ctx, raw)
	if err != nil {
		zapLog.Fatal("request validation failed", zap.Error(err))
	}

	snap := jobClient.Submit(ctx, req)
	zapLog.Info("submitted", zap.String("state", string(snap.State)), zap.String("jobId", snap.JobID))

	for snap.State == client.StatePolling {
		time.Sleep(1 * time.Second)
		snap = jobClient.Snapshot()
		zapLog.Info("progress",
			zap.Float64("progress", snap.Progress),
			zap.String("step", snap.CurrentStep),
		)
	}

	snap = jobClient.Wait(ctx)
	if snap.Err != nil {
		zapLog.Error("generation did not complete",
			zap.String("state", string(snap.State)),
			zap.String("code", string(snap.Err.Code)),
			zap.String("details", snap.Err.Details),
		)
		return
	}

	fmt.Println(snap.Content)
}
