package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/oyen-dev/streamfund-backend/internal/alert"
	"github.com/oyen-dev/streamfund-backend/internal/chain/evm"
	"github.com/oyen-dev/streamfund-backend/internal/config"
	"github.com/oyen-dev/streamfund-backend/internal/logging"
	"github.com/oyen-dev/streamfund-backend/internal/notify"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/reconciler"
	"github.com/oyen-dev/streamfund-backend/internal/pipeline/retry"
	"github.com/oyen-dev/streamfund-backend/internal/pricing"
	"github.com/oyen-dev/streamfund-backend/internal/store"
	"github.com/oyen-dev/streamfund-backend/internal/store/memory"
	"github.com/oyen-dev/streamfund-backend/internal/store/postgres"
	redisstore "github.com/oyen-dev/streamfund-backend/internal/store/redis"
	"github.com/oyen-dev/streamfund-backend/internal/tracing"
)

const serviceName = "streamfund-indexer"

// newDialer is swapped in tests to avoid real RPC endpoints.
var newDialer = evm.NewDialer

type poolStatsRecorder interface {
	RecordPoolStats()
}

// ledger is the opened store plus whatever must be released at exit.
type ledger struct {
	repos  *store.Repos
	pool   poolStatsRecorder
	closer io.Closer
}

func openLedger(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*ledger, error) {
	if cfg.Backend == config.StoreBackendMemory {
		logger.Warn("using in-memory ledger; state is lost on restart")
		st := memory.New()
		return &ledger{repos: st.Repos(), closer: st}, nil
	}

	db, err := postgres.New(postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("connected to database")
	return &ledger{repos: postgres.NewRepos(db), pool: db, closer: db}, nil
}

// loadDotEnv reads .env when present. Variables already in the environment
// win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func main() {
	if err := loadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(cfg.Log)
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("indexer exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("indexer shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	chainIDs := make([]int64, 0, len(cfg.Chains))
	for _, c := range cfg.Chains {
		chainIDs = append(chainIDs, c.ChainID)
	}
	logger.Info("starting "+serviceName,
		"chains", chainIDs,
		"store_backend", cfg.DB.Backend,
		"notify_backend", cfg.Notify.Backend,
		"protocol_fee_bps", cfg.Pipeline.ProtocolFeeBps,
	)

	tracingEndpoint := ""
	if cfg.Tracing.Enabled {
		tracingEndpoint = cfg.Tracing.Endpoint
	}
	shutdownTracing, err := tracing.Init(ctx, serviceName, tracingEndpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()
	if cfg.Tracing.Enabled {
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	led, err := openLedger(ctx, cfg.DB, logger)
	if err != nil {
		return err
	}
	defer led.closer.Close()

	var redisClient goredis.Cmdable
	if cfg.Redis.URL != "" {
		client, err := redisstore.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
		logger.Info("connected to redis")
	}

	var shared pricing.SharedCache
	if redisClient != nil {
		shared = redisstore.NewPriceCache(redisClient, cfg.Price.CacheTTL)
	}
	prices := pricing.NewClient(cfg.Price, shared, logger)

	publisher, err := notify.FromConfig(cfg, redisClient, logger)
	if err != nil {
		return fmt.Errorf("init notifications: %w", err)
	}
	defer publisher.Close()

	alerter := alert.FromConfig(cfg.Alert, logger)

	rec := reconciler.New(led.repos, prices, logger,
		reconciler.WithProtocolFeeBps(cfg.Pipeline.ProtocolFeeBps),
		reconciler.WithPublisher(publisher),
		reconciler.WithAlerter(alerter),
	)

	registry := pipeline.NewRegistry()
	for _, desc := range cfg.Chains {
		registry.Register(pipeline.NewChainPipeline(desc, cfg.Pipeline, newDialer(desc.RPCURL), rec, logger,
			pipeline.WithAlerter(alerter),
		))
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHealthServer(gCtx, cfg.Server.HealthPort, registry, logger)
	})

	if led.pool != nil {
		startDBPoolStatsPump(gCtx, led.pool, cfg.DB.PoolStatsIntervalMS, logger)
	}

	g.Go(func() error {
		// Give the rest of the process a moment to come up before touching
		// the ledger, then seed it once before any log is consumed.
		if err := retry.Sleep(gCtx, cfg.Pipeline.BootstrapDelay); err != nil {
			return nil
		}
		if err := rec.Bootstrap(gCtx, cfg.Chains); err != nil {
			return err
		}
		return registry.Run(gCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func startDBPoolStatsPump(ctx context.Context, pool poolStatsRecorder, intervalMS int, logger *slog.Logger) {
	if pool == nil || intervalMS <= 0 {
		return
	}

	ticker := time.NewTicker(time.Duration(intervalMS) * time.Millisecond)
	go func() {
		defer ticker.Stop()
		pool.RecordPoolStats()
		for {
			select {
			case <-ctx.Done():
				logger.Info("db pool stats sampler stopped", "cause", "context_done")
				return
			case <-ticker.C:
				pool.RecordPoolStats()
			}
		}
	}()
}

type healthResponse struct {
	Status    string                    `json:"status"`
	Pipelines []pipeline.HealthSnapshot `json:"pipelines"`
}

// healthHandler reports every pipeline's health; any unhealthy pipeline
// turns the response into a 503.
func healthHandler(registry *pipeline.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "ok", Pipelines: registry.Snapshots()}
		code := http.StatusOK
		for _, snap := range resp.Pipelines {
			if snap.Unhealthy() {
				resp.Status = "unhealthy"
				code = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	}
}

func newHealthMux(registry *pipeline.Registry, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", healthHandler(registry, logger))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func runHealthServer(ctx context.Context, port int, registry *pipeline.Registry, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           newHealthMux(registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()

	logger.Info("health server started", "port", port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
