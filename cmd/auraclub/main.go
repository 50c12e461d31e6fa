package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/christianpasc/auraclubmanager/pkg/access"
	"github.com/christianpasc/auraclubmanager/pkg/billing"
	"github.com/christianpasc/auraclubmanager/pkg/config"
	"github.com/christianpasc/auraclubmanager/pkg/observability"
	"github.com/christianpasc/auraclubmanager/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("service exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	db, err := postgres.Connect(postgres.ConnectionConfig{
		URL:         cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     cfg.Database.Timeout,
		MaxLifetime: cfg.Database.MaxLifetime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db, logger); err != nil {
		return err
	}

	var redisClient *redis.Client
	var accessCache *access.Cache
	if cfg.Redis.URL != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, permission caching disabled")
			client.Close()
		} else {
			redisClient = client
			defer redisClient.Close()
			accessCache = access.NewCache(redisClient, cfg.Redis.CacheTTL)
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	billingService := billing.NewPostgresService(db, logger)
	accessStore := access.NewPostgresStore(db)
	checker := access.NewChecker(accessStore, accessCache, logger).WithMetrics(metrics)

	mw := access.NewMiddleware(checker)
	router := mux.NewRouter()
	router.Use(access.ExtractIdentity)
	if cfg.Observability.MetricsEnabled {
		router.Use(observability.HTTPMetricsMiddleware(metrics))
	}
	billing.NewHandlers(billingService, metrics).RegisterRoutes(router, mw)
	access.NewHandlers(checker).RegisterRoutes(router, mw)

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	var sweeper *cron.Cron
	if cfg.Sweep.Enabled {
		sweeper = cron.New()
		if _, err := sweeper.AddFunc(cfg.Sweep.Schedule, func() {
			runSweep(context.Background(), billingService, metrics, logger)
		}); err != nil {
			return err
		}
		sweeper.Start()
		logger.WithField("schedule", cfg.Sweep.Schedule).Info("overdue sweep scheduled")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("starting API server")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("starting health server")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				metrics.CollectDBStats(db)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		if sweeper != nil {
			<-sweeper.Stop().Done()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		apiServer.Shutdown(shutdownCtx)
		healthServer.Shutdown(shutdownCtx)
		return nil
	})

	return g.Wait()
}

// runSweep advances stale pending fees to overdue for every known tenant.
// A failure for one tenant does not stop the others.
func runSweep(ctx context.Context, service billing.Service, metrics *observability.Metrics, logger *observability.Logger) {
	today := time.Now().UTC()

	tenants, err := service.ListTenantIDs(ctx)
	if err != nil {
		logger.WithError(err).Error("sweep failed to list tenants")
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		return
	}

	var total int64
	failed := false
	for _, tenantID := range tenants {
		swept, err := service.SweepDue(ctx, tenantID, today)
		if err != nil {
			logger.WithError(err).WithField("tenant_id", tenantID.String()).Error("sweep failed for tenant")
			failed = true
			continue
		}
		total += swept
	}

	metrics.FeesSweptTotal.Add(float64(total))
	if failed {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
	} else {
		metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	}

	logger.WithFields(map[string]interface{}{
		"tenants": len(tenants),
		"swept":   total,
	}).Info("overdue sweep completed")
}
