package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agegraph/typegraph/internal/entities"
	"github.com/agegraph/typegraph/internal/handlers"
	"github.com/agegraph/typegraph/internal/infrastructure/cache"
	"github.com/agegraph/typegraph/internal/infrastructure/config"
	"github.com/agegraph/typegraph/internal/infrastructure/database"
	"github.com/agegraph/typegraph/internal/infrastructure/logging"
	"github.com/agegraph/typegraph/internal/infrastructure/metrics"
	"github.com/agegraph/typegraph/internal/repositories/postgres"
	"github.com/agegraph/typegraph/internal/services"
	"github.com/agegraph/typegraph/pkg/cache/memorycache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const (
	defaultEnv = "dev"

	metricsUpdateInterval = 15 * time.Second
	shutdownTimeout       = 30 * time.Second
)

func main() {
	// Get environment from ENV variable or use default
	env := os.Getenv("ENV")
	if env == "" {
		env = defaultEnv
	}

	// Initialize configuration
	if err := config.InitConfig(env); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Connect to database
	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pg.Close()

	logger.Info("connected to database",
		zap.String("user", cfg.Database.User),
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Database))

	// Metrics
	collector := metrics.NewCollector()
	exporter := metrics.NewPrometheusExporter(collector, prometheus.DefaultRegisterer)
	recorder := metrics.NewRecorder(collector, exporter)

	// Initialize repositories
	schemaRepo := postgres.NewPostgresSchemaRepository(pg.DB)
	attributeRepo := postgres.NewPostgresAttributeRepository(pg.DB)
	graphRepo := postgres.NewPostgresGraphRepository(pg.DB)

	// Initialize services
	schemaOpts := []services.SchemaOption{
		services.WithSchemaLogger(logger.Named("schema")),
		services.WithSchemaObserver(recorder),
	}

	var typeCache *memorycache.Cache[*entities.TypeDefinition]
	if cfg.Cache.Enabled {
		typeCache, err = memorycache.New(&memorycache.Config[*entities.TypeDefinition]{
			MaxSizeBytes:  cfg.Cache.MaxMemoryBytes,
			DefaultTTL:    time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
			EnableMetrics: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create type cache: %w", err)
		}
		defer typeCache.Close()

		collector.SetCache(typeCache)
		schemaOpts = append(schemaOpts, services.WithTypeCache(typeCache))
	}

	schemaService := services.NewSchemaService(schemaRepo, attributeRepo, schemaOpts...)
	entityService := services.NewEntityService(schemaService, graphRepo,
		services.WithEntityLogger(logger.Named("entity")),
		services.WithEntityObserver(recorder),
		services.WithPageLimit(cfg.Graph.ListPageLimit),
		services.WithDecodeWorkers(cfg.Graph.DecodeWorkers),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Keep the cache consistent with writes made by other instances
	if typeCache != nil {
		invalidator := cache.NewTypeCacheInvalidator(cfg.Database.ConnectionString(), schemaService, logger.Named("invalidator"))
		if err := invalidator.Start(ctx); err != nil {
			return fmt.Errorf("failed to start type cache invalidator: %w", err)
		}
		defer func() {
			if err := invalidator.Stop(); err != nil {
				logger.Warn("failed to stop type cache invalidator", zap.Error(err))
			}
		}()
	}

	// Create gRPC server
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		metrics.UnaryServerInterceptor(collector, exporter),
		metrics.LoggingUnaryInterceptor(logger.Named("grpc")),
	))
	handlers.RegisterGraphServiceServer(grpcServer, handlers.NewGraphHandler(schemaService, entityService, logger.Named("handler")))

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.HealthCheck(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			serverErrors <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		logger.Info("metrics server listening", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("metrics server error: %w", err)
		}
	}()
	go refreshMetrics(ctx, exporter)

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		logger.Info("initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Channel to notify when graceful stop completes
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Info("gRPC server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, forcing stop")
		grpcServer.Stop()
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to stop metrics server", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

// refreshMetrics copies cache gauges into the exporter until ctx is done
func refreshMetrics(ctx context.Context, exporter *metrics.PrometheusExporter) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			exporter.Update()
		}
	}
}
