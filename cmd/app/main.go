package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiHttp "github.com/wealthplan/backend/internal/api/http"
	"github.com/wealthplan/backend/internal/cache"
	"github.com/wealthplan/backend/internal/config"
	"github.com/wealthplan/backend/internal/db"
	"github.com/wealthplan/backend/internal/queue/asynqserver"
	queueClient "github.com/wealthplan/backend/internal/queue/client"
	"github.com/wealthplan/backend/internal/repository"
	"github.com/wealthplan/backend/internal/server"
	"github.com/wealthplan/backend/internal/service"
	"github.com/wealthplan/backend/internal/worker"
	"github.com/wealthplan/backend/pkg/auth"
	"github.com/wealthplan/backend/pkg/email/smtp"
	"github.com/wealthplan/backend/pkg/hash"
	"github.com/wealthplan/backend/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	// Dependencies
	appLogger := logger.SetupLogger(cfg.Env)

	appLogger.Info("starting backend api", zap.String("env", cfg.Env))
	appLogger.Debug("debug messages are enabled")

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		appLogger.Error("mysql connect problem", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		err = dbMySQL.Close()
		if err != nil {
			appLogger.Error("error when closing", zap.Error(err))
		}
	}()
	appLogger.Info("mysql connection done")

	// Session cache: a missing or unreachable cache degrades latency only,
	// the durable store stays authoritative.
	sessionCache := cache.NewNoopSessionCache()
	if cfg.Cache.Type != cache.RedisTypeNone {
		redisClient, err := cache.NewRedis(cfg.Cache)
		if err != nil {
			appLogger.Error("redis connect problem", zap.Error(err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("error when closing redis", zap.Error(err))
			}
		}()
		sessionCache = cache.NewRedisSessionCache(redisClient)
		appLogger.Info("redis connection done")
	}

	hasher := hash.NewSHA256Hasher(cfg.Auth.PasswordSalt)

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	if err != nil {
		appLogger.Error("auth manager creation err", zap.Error(err))
		return
	}

	// Services, Repos & API Handlers
	repos := repository.NewRepositories(dbMySQL)
	services := service.NewServices(service.Deps{
		Logger:       appLogger,
		Config:       cfg,
		Hasher:       hasher,
		TokenManager: tokenManager,
		SessionCache: sessionCache,
		Repos:        repos,
	})
	handlers := apiHttp.NewHandlers(services, tokenManager, cfg)

	// Workers & queue
	workerDeps := worker.Deps{Config: cfg}
	if cfg.Email.Enabled {
		emailSender, err := smtp.NewSMTPSender(cfg.SMTP.From, cfg.SMTP.Pass, cfg.SMTP.Host, cfg.SMTP.Port)
		if err != nil {
			appLogger.Error("smtp sender creation failed", zap.Error(err))
			return
		}
		workerDeps.EmailProvider = emailSender
	}
	workers := worker.NewWorkers(workerDeps)

	if cfg.Cache.Type != cache.RedisTypeNone {
		asynqClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
		defer asynqClient.Close()
		restoreClient := queueClient.SetClient(asynqClient)
		defer restoreClient()

		queueServer, mux := asynqserver.New(cfg.Cache, services, workers, appLogger)
		go func() {
			if err := queueServer.Run(mux); err != nil {
				appLogger.Error("asynq server stopped", zap.Error(err))
			}
		}()
		defer queueServer.Shutdown()

		scheduler, err := asynqserver.NewScheduler(cfg.Cache, cfg.Auth.CleanupInterval)
		if err != nil {
			appLogger.Error("scheduler creation failed", zap.Error(err))
			return
		}
		go func() {
			if err := scheduler.Run(); err != nil {
				appLogger.Error("asynq scheduler stopped", zap.Error(err))
			}
		}()
		defer scheduler.Shutdown()
		appLogger.Info("session cleanup scheduled", zap.Duration("interval", cfg.Auth.CleanupInterval))
	}

	// HTTP Server
	srv := server.NewServer(cfg, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	appLogger.Info("server started")

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		appLogger.Error("failed to stop server", zap.Error(err))
	}

	appLogger.Info("app stopped")
}
