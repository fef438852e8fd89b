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

	"github.com/tkao/creatorlens/internal/api"
	"github.com/tkao/creatorlens/internal/api/middleware"
	"github.com/tkao/creatorlens/internal/config"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/provider"
	"github.com/tkao/creatorlens/internal/queue"
	"github.com/tkao/creatorlens/internal/repository"
	"github.com/tkao/creatorlens/internal/service"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		ServiceName: "creatorlens-api",
	})
	logger.SetDefault(appLogger)

	ctx := context.Background()

	// Database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	videoRepo := repository.NewVideoRepository(db)
	scriptRepo := repository.NewScriptRepository(db)

	// Redis task queue
	redisClient, err := queue.NewRedisClient(ctx, &queue.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	taskQueue := queue.NewTaskQueue(redisClient, cfg.Redis.Queue)

	// Vector index (read path for retrieval)
	chunkIndex, err := repository.NewChunkIndex(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Providers.Embedding.Dimensions,
	})
	if err != nil {
		appLogger.Fatalf("Failed to initialize vector index: %v", err)
	}
	defer chunkIndex.Close()

	if err := chunkIndex.EnsureCollection(ctx); err != nil {
		appLogger.Fatalf("Failed to ensure vector collection: %v", err)
	}

	// Providers
	limiter := service.NewProviderLimiter(cfg.Pipeline.ProviderRPS, cfg.Pipeline.ProviderBurst)
	embedder := provider.NewRemoteEmbedder(&provider.EmbeddingConfig{
		Provider:   cfg.Providers.Embedding.Provider,
		Model:      cfg.Providers.Embedding.Model,
		APIKey:     cfg.Providers.Embedding.APIKey,
		BaseURL:    cfg.Providers.Embedding.BaseURL,
		Dimensions: cfg.Providers.Embedding.Dimensions,
	})
	generator := provider.NewChatGenerator(&provider.LLMConfig{
		Provider: cfg.Providers.LLM.Provider,
		Model:    cfg.Providers.LLM.Model,
		APIKey:   cfg.Providers.LLM.APIKey,
		BaseURL:  cfg.Providers.LLM.BaseURL,
	})
	catalog := provider.NewHTTPCatalog(&provider.CatalogConfig{
		BaseURL: cfg.Providers.Catalog.BaseURL,
		APIKey:  cfg.Providers.Catalog.APIKey,
	})

	// Services
	channelService := service.NewChannelService(videoRepo, catalog, taskQueue, limiter)
	analyzer := service.NewAnalyzer(videoRepo, generator, limiter)
	scriptGenerator := service.NewScriptGenerator(analyzer, scriptRepo, chunkIndex, embedder, generator, limiter, cfg.Pipeline.RetrievalTopK)
	titleService := service.NewTitleService(analyzer, generator, limiter)

	router := api.SetupRouter(api.Deps{
		Videos:    videoRepo,
		Tasks:     taskQueue,
		Channels:  channelService,
		Analyzer:  analyzer,
		Generator: scriptGenerator,
		Titles:    titleService,
		Scripts:   scriptRepo,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
	}, cfg.Server.Mode)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting API server on port %d (mode=%s)", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	appLogger.Info("Server exited")
}
