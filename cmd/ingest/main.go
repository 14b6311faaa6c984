package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kcscroggins/water-institute-chatbot/internal/config"
	"github.com/kcscroggins/water-institute-chatbot/internal/database/milvus"
	"github.com/kcscroggins/water-institute-chatbot/internal/database/redis"
	"github.com/kcscroggins/water-institute-chatbot/internal/embedding"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/loaders"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/pipeline"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/splitters"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/storages/vectorstore"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	dataDir := flag.String("data", "", "source document directory (overrides config)")
	rebuild := flag.Bool("rebuild", false, "drop the collection and re-ingest from scratch")
	flag.Parse()

	// All failure paths return through run so its defers — most importantly
	// the ingest lock release — execute before the process exits. os.Exit
	// here would leave the lock held for the full TTL.
	if err := run(*configPath, *dataDir, *rebuild); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string, rebuild bool) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if dataDir != "" {
		cfg.Ingest.DataDir = dataDir
	}
	if cfg.Ingest.DataDir == "" {
		return fmt.Errorf("no data directory: set ingest.dataDir or pass -data")
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("Ingest", "")
	appLogger.Info(fmt.Sprintf("Starting ingestion from %s", cfg.Ingest.DataDir))

	ctx := context.Background()

	// Only one ingestion run may touch the collection at a time. Overlapping
	// runs would interleave delete-then-upsert sequences.
	rdb, err := redis.GetClient(&cfg.Databases.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redis.Close()

	lock := redis.NewIngestLock(rdb, cfg.Databases.Milvus.Collection, uuid.NewString())
	if err := lock.Acquire(ctx, time.Duration(cfg.Ingest.LockTTL)*time.Second); err != nil {
		return fmt.Errorf("cannot start: %w", err)
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			appLogger.WithError(err).Warn("Failed to release ingestion lock")
		}
	}()

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		return fmt.Errorf("failed to connect to Milvus: %w", err)
	}
	defer milvusClient.Close()

	if rebuild {
		appLogger.Info("Rebuild requested, dropping existing collection")
		if err := milvusClient.DropCollection(ctx); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}
	if err := milvusClient.EnsureCollection(ctx, cfg.Databases.Milvus.Dim); err != nil {
		return fmt.Errorf("failed to prepare collection: %w", err)
	}

	vectorStore, err := vectorstore.NewMilvusStore(milvusClient, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create vector store: %w", err)
	}

	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	splitter, err := splitters.NewTokenSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to create splitter: %w", err)
	}

	docs, loadErrs, err := loaders.LoadDirectory(ctx, cfg.Ingest.DataDir)
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, le := range loadErrs {
		appLogger.WithError(le).Warn("Skipping unreadable source file")
	}
	appLogger.Info(fmt.Sprintf("Loaded %d source documents (%d unreadable)", len(docs), len(loadErrs)))

	indexing := pipeline.NewIndexingPipeline(splitter, embedder, vectorStore, cfg.Embedding.BatchSize, appLogger)
	report := indexing.Ingest(ctx, docs)

	if err := milvusClient.Flush(ctx); err != nil {
		appLogger.WithError(err).Warn("Flush failed, recent writes may not be durable yet")
	}

	fmt.Printf("\nIngestion complete: %d documents, %d chunks, %d failures\n",
		report.DocumentsProcessed, report.ChunksCreated, len(report.Errors))
	for _, ingestErr := range report.Errors {
		fmt.Printf("  failed: %v\n", ingestErr)
	}
	if len(report.Errors) > 0 || len(loadErrs) > 0 {
		return fmt.Errorf("ingestion finished with %d document failures and %d unreadable files",
			len(report.Errors), len(loadErrs))
	}
	return nil
}
