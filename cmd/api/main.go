package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskify/backend/internal/cache"
	"taskify/backend/internal/config"
	"taskify/backend/internal/database"
	"taskify/backend/internal/handlers"
	"taskify/backend/internal/middleware"
	"taskify/backend/internal/monitoring"
	"taskify/backend/internal/repositories"
	"taskify/backend/internal/services"
	"taskify/backend/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) error {
	poolCfg := database.DefaultPoolConfig()
	poolCfg.DSN = cfg.GetDatabaseDSN()
	poolCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	poolCfg.MaxIdleConns = cfg.Database.MaxIdleConns
	poolCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	poolCfg.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := database.NewDatabasePool(poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.AutoMigrate(); err != nil {
		return err
	}
	logger.Info("database ready",
		zap.String("host", cfg.Database.Host),
		zap.String("name", cfg.Database.Name))

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(&cache.RedisConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer redisCache.Close()
	}
	appCache := cache.NewMultiLevelCache(redisCache)

	taskRepo := repositories.NewTaskRepository(pool.DB)
	categoryRepo := repositories.NewCategoryRepository(pool.DB)
	userRepo := repositories.NewUserRepository(pool.DB)

	taskService := services.NewTaskService(taskRepo, categoryRepo, services.TaskServiceConfig{
		MaxTasksPerUser: cfg.Engine.MaxTasksPerUser,
		MaxTaskDepth:    cfg.Engine.MaxTaskDepth,
	}, logger)
	cachedTasks := services.NewCachedTaskService(taskService, appCache, logger)

	authService := services.NewAuthService(userRepo, services.AuthConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		BCryptCost:     cfg.Auth.BCryptCost,
	})

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return pool.Health()
	})
	if redisCache != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return redisCache.Health(ctx)
		})
	}

	router := buildRouter(cfg, logger, cachedTasks, categoryRepo, authService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if redisCache != nil {
		startBackgroundWork(ctx, cfg, logger, redisCache, taskRepo)
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRouter(
	cfg *config.Config,
	logger *zap.Logger,
	taskService services.TaskService,
	categoryRepo *repositories.CategoryRepository,
	authService services.AuthService,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		})
		router.Use(limiter.Middleware())
	}

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/health/ready", monitoring.ReadinessHandler())
	router.GET("/health/live", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	taskHandler := handlers.NewTaskHandler(taskService)
	categoryHandler := handlers.NewCategoryHandler(categoryRepo)
	authHandler := handlers.NewAuthHandler(authService, int64(cfg.Auth.AccessTokenTTL.Seconds()))

	handlers.RegisterRoutes(router, middleware.AuthMiddleware(cfg.Auth.JWTSecret), taskHandler, categoryHandler, authHandler)

	return router
}

func startBackgroundWork(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	redisCache *cache.RedisCache,
	taskRepo *repositories.TaskRepository,
) {
	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient: redisCache.Client(),
		Logger:      logger,
	})
	w.RegisterHandler(worker.JobTypeTaskReminder, worker.LogReminderHandler(logger))
	w.Start(cfg.Worker.Concurrency)

	queue := worker.NewJobQueue(redisCache.Client())
	scanner := worker.NewReminderScanner(taskRepo, queue, cfg.Worker.ReminderInterval, cfg.Worker.ReminderWindow, logger)
	go scanner.Run(ctx)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
}
