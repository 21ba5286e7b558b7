package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasktrack/internal/cache"
	"tasktrack/internal/config"
	"tasktrack/internal/database"
	"tasktrack/internal/handlers"
	"tasktrack/internal/middleware"
	"tasktrack/internal/monitoring"
	"tasktrack/internal/services"
	"tasktrack/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
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

	redisCache := cache.NewRedisCacheWithClient(redisClient)
	multiCache := cache.NewMultiLevelCache(redisCache)
	defer multiCache.Close()

	taskService := services.NewCachedTaskService(services.NewTaskService(), multiCache, cfg.Tasks.CacheTTL)
	authService := services.NewAuthService(cfg.Auth)

	jobQueue := worker.NewJobQueue(redisClient)

	taskHandler := handlers.NewTaskHandler(db, taskService, cfg.Tasks, cfg.Database.StoreTimeout, jobQueue)
	authHandler := handlers.NewAuthHandler(db, authService)
	logoutHandler := handlers.NewLogoutHandler(db, authService)

	monitoring.RegisterHealthCheck("database", database.HealthCheck(db))
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  redisClient,
		Queues:       cfg.Worker.Queues,
		PollInterval: cfg.Worker.PollInterval,
	})
	w.RegisterHandler(worker.JobTypeTaskReminder, worker.TaskReminderHandler(db))
	w.RegisterHandler(worker.JobTypeTokenCleanup, worker.TokenCleanupHandler(db))
	w.Start(cfg.Worker.Concurrency)
	defer w.Stop()

	// Sweep expired refresh tokens once an hour.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := jobQueue.Enqueue("default", worker.JobTypeTokenCleanup, nil); err != nil {
				log.Printf("failed to enqueue token cleanup: %v", err)
			}
		}
	}()

	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit)
		router.Use(limiter.Middleware())
	}

	router.GET("/healthz", monitoring.HealthHandler())
	router.GET("/readyz", monitoring.ReadinessHandler())
	router.GET("/livez", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	api := router.Group("/api")
	{
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.POST("/auth/logout", logoutHandler.Logout)

		tasks := api.Group("/tasks")
		tasks.Use(middleware.AuthMiddleware(db, cfg.Auth.JWTSecret))
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.POST("", taskHandler.CreateTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}
	}

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
