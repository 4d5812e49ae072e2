package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/hire-gateway/internal/config"
	"github.com/nimasrn/hire-gateway/internal/handlers"
	"github.com/nimasrn/hire-gateway/internal/queue"
	"github.com/nimasrn/hire-gateway/internal/repository"
	"github.com/nimasrn/hire-gateway/internal/services"
	xhttp "github.com/nimasrn/hire-gateway/pkg/http"
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
	logger.Info("starting hire api", "version", version, "commit", commit, "date", date)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.Debug())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.RedisOptions("hire-api"))
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	unmatchedQ, err := queue.NewQueue(ctx, redisAdap, cfg.UnmatchedQueue())
	if err != nil {
		logger.Error("failed creating unmatched queue", "error", err)
		return
	}

	personRepo := repository.NewPersonRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	hireRepo := repository.NewHireRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	unmatchedRepo := repository.NewUnmatchedRepository(db)

	lifecycle := services.NewLifecycleService(db, hireRepo, assetRepo)
	hireService := services.NewHireService(db, hireRepo, assetRepo, personRepo, paymentRepo, lifecycle, nil)
	registryService := services.NewRegistryService(personRepo, assetRepo)
	reconciliation := services.NewReconciliationService(db, hireRepo, paymentRepo, lifecycle, queue.NewUnmatchedPublisher(unmatchedQ))

	s := xhttp.CreateServer()
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout, handlers.C2BPathPrefixes...))
	s.Use(xhttp.RecoverMiddleware)

	handlers.RegisterC2BRoutes(s.Router, handlers.NewC2BHandler(reconciliation, cfg.MpesaCallbackTimeout))

	g := s.Router.Group("/api/v1")
	handlers.RegisterAdminRoutes(g.Group("/admin"), handlers.NewAdminHandler(hireService, registryService, unmatchedRepo))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(map[string]handlers.Pinger{
		"postgres": db,
		"redis":    redisAdap,
	}))

	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	s.Shutdown()
	if err := redis.CloseAll(); err != nil {
		logger.Warn("closing redis", "error", err)
	}
}
