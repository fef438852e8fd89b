package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tkao/creatorlens/internal/config"
	"github.com/tkao/creatorlens/internal/logger"
	"github.com/tkao/creatorlens/internal/provider"
	"github.com/tkao/creatorlens/internal/queue"
	"github.com/tkao/creatorlens/internal/repository"
	"github.com/tkao/creatorlens/internal/service"
	"github.com/tkao/creatorlens/internal/storage"
)

func main() {
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
		ServiceName: "creatorlens-worker",
	})
	logger.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	videoRepo := repository.NewVideoRepository(db)
	indexMetaRepo := repository.NewIndexMetaRepository(db)

	// Redis queue and locks
	redisClient, err := queue.NewRedisClient(ctx, &queue.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	taskQueue := queue.NewTaskQueue(redisClient, cfg.Redis.Queue)
	locker := queue.NewRedisLocker(redisClient, "", cfg.Redis.LockTTL)

	// Vector index
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

	// Blob storage
	blobs, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		appLogger.Fatalf("Failed to initialize storage: %v", err)
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		appLogger.Fatalf("Failed to ensure storage bucket: %v", err)
	}

	// Providers
	limiter := service.NewProviderLimiter(cfg.Pipeline.ProviderRPS, cfg.Pipeline.ProviderBurst)
	resolver := provider.NewHTTPAudioResolver(&provider.AudioResolverConfig{
		BaseURL: cfg.Providers.Resolver.BaseURL,
		Bitrate: cfg.Providers.Resolver.Bitrate,
	})
	stt := provider.NewWhisperSTT(&provider.WhisperConfig{
		BaseURL: cfg.Providers.STT.BaseURL,
		APIKey:  cfg.Providers.STT.APIKey,
		Model:   cfg.Providers.STT.Model,
	})
	embedder := provider.NewRemoteEmbedder(&provider.EmbeddingConfig{
		Provider:   cfg.Providers.Embedding.Provider,
		Model:      cfg.Providers.Embedding.Model,
		APIKey:     cfg.Providers.Embedding.APIKey,
		BaseURL:    cfg.Providers.Embedding.BaseURL,
		Dimensions: cfg.Providers.Embedding.Dimensions,
	})
	catalog := provider.NewHTTPCatalog(&provider.CatalogConfig{
		BaseURL: cfg.Providers.Catalog.BaseURL,
		APIKey:  cfg.Providers.Catalog.APIKey,
	})

	chunker, err := service.NewChunker(cfg.Pipeline.ChunkWindow, cfg.Pipeline.ChunkOverlap)
	if err != nil {
		appLogger.Fatalf("Invalid chunking configuration: %v", err)
	}

	pipeline := service.NewPipeline(service.PipelineDeps{
		Videos:   videoRepo,
		Index:    chunkIndex,
		Meta:     indexMetaRepo,
		Blobs:    blobs,
		Resolver: resolver,
		STT:      stt,
		Embedder: embedder,
		Chunker:  chunker,
		Locker:   locker,
		Limiter:  limiter,
		Retry: service.RetryPolicy{
			Attempts:  cfg.Pipeline.RetryAttempts,
			BaseDelay: cfg.Pipeline.RetryBaseDelay,
			MaxDelay:  cfg.Pipeline.RetryMaxDelay,
		},
	})

	channelService := service.NewChannelService(videoRepo, catalog, taskQueue, limiter)

	// Periodic metrics refresh
	if cfg.Poller.Enabled {
		poller := service.NewMetricsPoller(videoRepo, taskQueue, cfg.Poller.CronSpec)
		if err := poller.Start(ctx); err != nil {
			appLogger.Fatalf("Failed to start metrics poller: %v", err)
		}
		defer poller.Stop()
	}

	worker := service.NewWorker(taskQueue, pipeline, channelService, cfg.Pipeline.Workers)
	worker.Run(ctx)

	appLogger.Info("Worker exited")
}
