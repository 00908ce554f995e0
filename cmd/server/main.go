package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskshare/api/handler"
	"github.com/fastygo/taskshare/internal/config"
	boltInfra "github.com/fastygo/taskshare/internal/infrastructure/boltdb"
	"github.com/fastygo/taskshare/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskshare/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskshare/internal/infrastructure/redis"
	"github.com/fastygo/taskshare/internal/middleware"
	"github.com/fastygo/taskshare/internal/router"
	"github.com/fastygo/taskshare/internal/services/lifecycle"
	"github.com/fastygo/taskshare/pkg/httpcontext"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/repository"
	boltRepo "github.com/fastygo/taskshare/repository/boltdb"
	"github.com/fastygo/taskshare/repository/postgres"
	redisRepo "github.com/fastygo/taskshare/repository/redis"
	authUC "github.com/fastygo/taskshare/usecase/auth"
	profileUC "github.com/fastygo/taskshare/usecase/profile"
	taskUC "github.com/fastygo/taskshare/usecase/task"
	userUC "github.com/fastygo/taskshare/usecase/user"
)

type stores struct {
	tasks  repository.TaskRepository
	shares repository.ShareRepository
	users  repository.UserRepository
	pinger monitor.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.Listen(context.Background())
	defer stop()

	st := openStores(appCtx, cfg, manager, zapLogger)

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient.Close)

	mon := monitor.New(st.pinger, cfg.Storage.Driver, monitor.RedisPinger(redisClient), cfg.Monitor.Interval, zapLogger)
	if err := mon.Start(); err != nil {
		zapLogger.Fatal("failed to start monitor", zap.Error(err))
	}
	manager.Register("monitor", mon.Stop)

	users := redisRepo.NewUserCache(st.users, redisClient, cfg.Cache.UserTTL)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Session.DefaultTTL)

	authUseCase := authUC.New(users, sessionRepo, authUC.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, zapLogger)
	profileUseCase := profileUC.New(users, zapLogger)
	taskUseCase := taskUC.New(st.tasks, st.shares, users, zapLogger)
	userUseCase := userUC.New(users, sessionRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.Session.DefaultTTL, cfg.Session.MaxTTL),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		User:    apiHandler.NewUserHandler(userUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(authUseCase, cfg.Context.RequestTimeout, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()), zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) stores {
	switch cfg.Storage.Driver {
	case config.DriverBolt:
		store, err := boltInfra.Open(cfg.Storage.BoltPath)
		if err != nil {
			zapLogger.Fatal("failed to open bolt store", zap.Error(err))
		}
		manager.RegisterCloser("bolt", store.Close)
		zapLogger.Info("opened bolt store", zap.String("path", cfg.Storage.BoltPath))
		return stores{
			tasks:  boltRepo.NewTaskRepository(store),
			shares: boltRepo.NewShareRepository(store),
			users:  boltRepo.NewUserRepository(store),
			pinger: store,
		}
	default:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return stores{
			tasks:  postgres.NewTaskRepository(pool),
			shares: postgres.NewShareRepository(pool),
			users:  postgres.NewUserRepository(pool),
			pinger: pool,
		}
	}
}
