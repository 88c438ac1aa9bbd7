package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/turnover/internal/adapters/http/api"
	"github.com/okian/turnover/internal/adapters/http/swagger"
	"github.com/okian/turnover/internal/adapters/inference"
	"github.com/okian/turnover/internal/adapters/repository"
	service "github.com/okian/turnover/internal/app"
	"github.com/okian/turnover/internal/config"
	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/pkg/logger"
	"github.com/okian/turnover/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Only the service registry is exposed.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// The logger may not be configured yet.
		os.Stderr.WriteString("turnover: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := logger.Get()

	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	predictor, err := buildPredictor(cfg, params)
	if err != nil {
		// The API still serves health and reports the model as missing.
		log.Error(ctx, "model not loaded", logger.String("model_kind", cfg.ModelKind), logger.Error(err))
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithParams(params),
		service.WithStore(store),
		service.WithQueueSize(cfg.LogQueueSize),
		service.WithWorkerCount(cfg.LogWorkerCount),
	}
	if predictor != nil {
		opts = append(opts, service.WithPredictor(predictor))
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("version", cfg.APIVersion),
			logger.Bool("debug", cfg.Debug),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout())
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	// Pending prediction logs are flushed after the last request finished.
	if err := svc.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("service stop: %w", err))
	}
	log.Info(ctx, "server stopped")
	return errors.Join(errs...)
}

// newRouter mounts the business API and its documentation.
func newRouter(svc *service.Service, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	apiCfg := api.DefaultConfig()
	apiCfg.Version = cfg.APIVersion
	apiCfg.Debug = cfg.Debug
	apiCfg.APIKey = cfg.APIKey
	apiCfg.CORSOrigins = cfg.CORSOrigins
	apiCfg.RateLimitDefault = cfg.RateLimitDefault
	apiCfg.RateLimitPredict = cfg.RateLimitPredict
	apiCfg.RateLimitBatch = cfg.RateLimitBatch
	apiCfg.RateLimitWindow = cfg.RateLimitWindow()
	apiCfg.MaxBodyBytes = cfg.MaxBodyBytes
	apiCfg.MaxUploadBytes = cfg.MaxUploadBytes
	apiCfg.MaxListLimit = cfg.MaxListLimit

	api.NewServer(svc, svc, apiCfg).Register(r)
	swagger.Register(r)
	return r
}

func buildParams(cfg *config.Config) (*features.Params, error) {
	opt := features.WithStrictCategories(cfg.StrictCategories)
	if cfg.FeatureParamsFile != "" {
		p, err := features.LoadParams(cfg.FeatureParamsFile, opt)
		if err != nil {
			return nil, fmt.Errorf("feature params: %w", err)
		}
		return p, nil
	}
	p, err := features.New(opt)
	if err != nil {
		return nil, fmt.Errorf("feature params: %w", err)
	}
	return p, nil
}

func buildPredictor(cfg *config.Config, params *features.Params) (inference.Predictor, error) {
	switch cfg.ModelKind {
	case config.ModelRemote:
		return inference.NewRemote(cfg.ModelURL,
			inference.WithTimeout(cfg.ModelTimeout()),
			inference.WithBreaker(cfg.ModelBreakerFailures, cfg.ModelBreakerCooldown()),
			inference.WithRemoteLogger(logger.Named("inference")),
		), nil
	default:
		m, err := inference.LoadLogistic(cfg.ModelPath, params)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// buildStore opens Postgres when a database URL is configured and falls
// back to the bounded in-memory log otherwise.
func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseURL == "" {
		return repository.NewMemoryStore(repository.WithCapacity(cfg.MemoryLogCapacity)), nil
	}
	if cfg.AutoMigrate {
		if err := repository.MigrateUp(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}
	pg, err := repository.OpenPostgres(repository.PostgresConfig{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Hour,
		ConnTimeout:     cfg.DBConnTimeout(),
	})
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the queue and store gauges, which
// GetStats publishes as a side effect.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
