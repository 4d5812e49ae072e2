package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/hire-gateway/internal/config"
	"github.com/nimasrn/hire-gateway/internal/processor"
	"github.com/nimasrn/hire-gateway/internal/repository"
	"github.com/nimasrn/hire-gateway/internal/scheduler"
	"github.com/nimasrn/hire-gateway/internal/services"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"github.com/nimasrn/hire-gateway/pkg/prom"
	"github.com/nimasrn/hire-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// The processor records unmatched C2B notifications and runs the overdue
// sweep.
func main() {
	defer logger.Sync()

	if err := config.Load(config.EnvPathFromArgs(os.Args)); err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	if err := logger.Configure(cfg.LogEnv, cfg.LogLevel); err != nil {
		logger.Error("failed to configure logger", "error", err)
		return
	}
	logger.Info("starting hire processor", "version", version, "commit", commit, "date", date)

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.Debug())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.RedisOptions("hire-processor"))
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idempotency := processor.NewIdempotencyService(redisAdap, processor.DefaultIdempotencyConfig())
	unmatched := processor.NewUnmatchedProcessor(repository.NewUnmatchedRepository(db), idempotency)

	service := processor.NewProcessorService(redisAdap, processor.ServiceConfig{
		Queue:     cfg.UnmatchedQueue(),
		Consumers: cfg.QueueConsumers,
		Workers:   cfg.QueueConsumers * 2,
	}, unmatched)
	if err := service.Start(ctx); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	hireRepo := repository.NewHireRepository(db)
	lifecycle := services.NewLifecycleService(db, hireRepo, repository.NewAssetRepository(db))
	overdue := services.NewOverdueService(db, hireRepo, lifecycle)

	sched, err := scheduler.NewScheduler(overdue, redisAdap, scheduler.Config{
		Schedule: cfg.OverdueSweepSchedule,
		Lease:    cfg.OverdueSweepLease,
	})
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		service.Stop()
		return
	}
	sched.Start()

	<-ctx.Done()
	sched.Stop()
	service.Stop()
	if err := redis.CloseAll(); err != nil {
		logger.Warn("closing redis", "error", err)
	}
}
