package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	v1 "github.com/yasirimran733/campus-connect/cmd/api/router/v1"
	"github.com/yasirimran733/campus-connect/internal/config"
	bAdapter "github.com/yasirimran733/campus-connect/internal/infrastructure/broadcast/adapter"
	bport "github.com/yasirimran733/campus-connect/internal/infrastructure/broadcast/port"
	cacheAdapter "github.com/yasirimran733/campus-connect/internal/infrastructure/cache/adapter"
	"github.com/yasirimran733/campus-connect/internal/infrastructure/database"
	qAdapter "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/adapter"
	"github.com/yasirimran733/campus-connect/internal/middleware"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/task"
	chatHTTP "github.com/yasirimran733/campus-connect/internal/pkg/chat/presentation/http"
	dirAdapter "github.com/yasirimran733/campus-connect/internal/repository/adapter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := database.Connect(ctx, cfg.Database.DSN)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()
	logger.Info("database connection established")

	redisOpt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.WithError(err).Fatal("failed to parse redis url")
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	logger.Info("redis connection established")

	var broadcaster bport.Broadcaster
	switch cfg.Broadcast.Backend {
	case config.BroadcastRedis:
		broadcaster = bAdapter.NewRedisBroadcaster(rdb, logger)
	default:
		broadcaster = bAdapter.NewMemoryBroadcaster()
	}
	defer broadcaster.Close()
	logger.WithField("backend", cfg.Broadcast.Backend).Info("broadcast layer ready")

	cache := cacheAdapter.NewRedisAdapter(rdb)
	pgDirectory := dirAdapter.NewPgUserDirectory(pool)
	users := dirAdapter.NewCachedUserDirectory(pgDirectory, cache)

	queueClient, err := qAdapter.NewAsynqClient(cfg.Redis.URL)
	if err != nil {
		logger.WithError(err).Fatal("failed to create queue client")
	}
	defer queueClient.Close()

	worker, err := qAdapter.NewAsynqServer(cfg.Redis.URL, cfg.Queue.Concurrency, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create queue worker")
	}
	task.RegisterDedupeConversationsTask(worker, pool, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := worker.Run(workerCtx); err != nil {
			logger.WithError(err).Error("queue worker stopped")
		}
	}()

	auth := middleware.NewAuthMiddleware(cfg.JWT, logger)
	router := setupRouter(cfg, auth, chatHTTP.Deps{
		Pool:        pool,
		Broadcaster: broadcaster,
		Queue:       queueClient,
		Users:       users,
		Items:       pgDirectory,
		Log:         logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorker()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server exited")
}

func setupRouter(cfg *config.Config, auth *middleware.AuthMiddleware, deps chatHTTP.Deps) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(router, auth, deps)
	return router
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	return logger
}
