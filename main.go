package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cellar-service/controllers"
	"cellar-service/database"
	"cellar-service/middleware"
	"cellar-service/repository"
	"cellar-service/routes"
	"cellar-service/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Initialize structured logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- 1. Initialization ---
	if err := database.Connect(cfg.MongoURL, cfg.MongoDB); err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zap.L().Warn("Failed to parse REDIS_URL, falling back to default", zap.Error(err))
		redisOpts = &redis.Options{Addr: "localhost:6379", DB: 0}
	}
	redisClient := redis.NewClient(redisOpts)

	// --- 2. Dependency injection ---
	batchRepo := repository.NewBatchRepository(database.DB)
	if err := batchRepo.EnsureIndexes(context.Background()); err != nil {
		zap.L().Warn("Failed to ensure batch indexes", zap.Error(err))
	}
	wineRepo := repository.NewWineRepository(database.DB)
	if err := wineRepo.EnsureIndexes(context.Background()); err != nil {
		zap.L().Warn("Failed to ensure wine indexes", zap.Error(err))
	}

	// The mapping oracle is a best-effort enhancement; without an API key
	// the static alias suggestion is used alone.
	var oracle services.MappingOracle
	if cfg.OpenAIAPIKey != "" {
		oracle = services.NewOpenAIMappingOracle(cfg.OpenAIAPIKey)
		zap.L().Info("Mapping oracle enabled")
	}

	mapper := services.NewColumnMapper(oracle)
	importService := services.NewImportService(batchRepo, wineRepo, mapper)

	cache := controllers.NewCacheManager(redisClient)
	validator := controllers.NewRequestValidator()
	importController := controllers.NewImportController(importService, cache, validator, cfg.MaxUploadBytes)

	// --- 3. HTTP server & middleware ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zap.L()))

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// --- 4. Route registration ---
	routes.RegisterRoutes(r, importController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// --- 5. Graceful shutdown ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Cellar Service starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Cellar Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		zap.L().Error("Failed to close Redis", zap.Error(err))
	}
	if err := database.Close(); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}

	zap.L().Info("Cellar Service stopped gracefully")
}
