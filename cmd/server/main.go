package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"domus/internal/ledger"
	"domus/internal/lifecycle"
	"domus/internal/notify"
	"domus/internal/platform/config"
	"domus/internal/platform/httpserver"
	"domus/internal/platform/logger"
	"domus/internal/platform/metrics"
	"domus/internal/platform/postgres"
	platformredis "domus/internal/platform/redis"
	"domus/internal/platform/token"
	"domus/internal/registry"
	httptransport "domus/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var apartments registry.Store = registry.NewInMemory()
	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		pgStore := registry.NewPostgres(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("schema migration failed", "error", err.Error())
			os.Exit(1)
		}
		apartments = pgStore
	}

	funds := ledger.NewInMemory()
	m := metrics.New()

	// The history store is appended synchronously by the service; only
	// external sinks go through the async inbox.
	eventStore := notify.NewMemoryStore()
	var sinks []notify.Publisher

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sinks = append(sinks, notify.NewRedisStream(redisClient.Client, cfg.RedisStream))
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := notify.NewKafka(ctx, log, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
	}

	inbox := notify.NewInbox(log, 256)
	worker := notify.NewWorker(notify.NewFanout(log, sinks...), inbox.Events())

	service := lifecycle.New(apartments, funds,
		lifecycle.WithLogger(log),
		lifecycle.WithMetrics(m),
		lifecycle.WithNotifier(inbox),
		lifecycle.WithEventStore(eventStore),
	)

	validator := token.NewValidator(cfg.JWTSigningKey)
	handler := httptransport.NewHandler(service, log)
	router := httptransport.NewRouter(handler, log, m, validator, cfg.RequestTimeout)

	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting domus", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
