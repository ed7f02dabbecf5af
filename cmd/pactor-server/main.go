// Command pactor-server runs the contract workflow API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pactorhq/pactor/internal/api"
	"github.com/pactorhq/pactor/internal/config"
	"github.com/pactorhq/pactor/internal/db"
	"github.com/pactorhq/pactor/internal/db/migrations"
	"github.com/pactorhq/pactor/internal/dbpool"
	"github.com/pactorhq/pactor/internal/service"
	"github.com/pactorhq/pactor/internal/store"
	"github.com/pactorhq/pactor/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	base := store.Base{Pool: pool, Log: log}
	contractStore := store.NewContractStore(base)
	versionStore := store.NewVersionStore(base)
	approvalStore := store.NewApprovalStore(base)
	auditStore := store.NewAuditStore(base)
	actorStore := store.NewActorStore(pool)

	auditSvc := service.NewAuditService(auditStore, log)
	auditWorker := service.NewAuditWorker(auditSvc, log, cfg.AuditQueueSize)

	versioning := service.NewVersioningService(versionStore, auditWorker, log)
	contractSvc := service.NewContractService(contractStore, versioning, auditWorker, log)
	versionSvc := service.NewVersionService(versionStore)
	workflowSvc := service.NewWorkflowService(contractStore, approvalStore, auditWorker, log)

	hub := ws.NewHub(log)
	bridge := db.NewNotifyBridge(log, pool, hub)

	handler := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Hub:         hub,
		Contracts:   contractSvc,
		Workflow:    workflowSvc,
		Versions:    versionSvc,
		Audit:       auditSvc,
		ActorLookup: actorStore,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	apiSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("start notify bridge: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		auditWorker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", cfg.Addr()).Info("api server listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", cfg.MetricsAddr()).Info("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := apiSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("api server shutdown")
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("metrics server shutdown")
		}
		hub.Shutdown()
		return nil
	})

	return g.Wait()
}
