package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/kcscroggins/water-institute-chatbot/internal/chat_service/api"
	"github.com/kcscroggins/water-institute-chatbot/internal/chat_service/service"
	"github.com/kcscroggins/water-institute-chatbot/internal/config"
	"github.com/kcscroggins/water-institute-chatbot/internal/database/milvus"
	"github.com/kcscroggins/water-institute-chatbot/internal/embedding"
	"github.com/kcscroggins/water-institute-chatbot/internal/llm"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/pipeline"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/storages/vectorstore"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("ChatService", "")
	appLogger.Info("Starting chat service...")

	ctx := context.Background()

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(ctx, cfg.Databases.Milvus.Dim); err != nil {
		log.Fatalf("Failed to prepare collection: %v", err)
	}

	vectorStore, err := vectorstore.NewMilvusStore(milvusClient, appLogger)
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}

	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create completion client: %v", err)
	}

	retrieval := pipeline.NewRetrievalPipeline(embedder, vectorStore, appLogger)
	synthesis := pipeline.NewSynthesisPipeline(llmClient, cfg.Chat.HistoryLimit, appLogger)
	chatService := service.NewService(retrieval, synthesis, vectorStore,
		service.NewKeywordClassifier(), cfg.Chat.TopK, appLogger)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(chatService, cfg.Server.RankingsFile, appLogger)
	router := api.SetupRouter(handler, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.RequestTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
	appLogger.Info("Server stopped")
}
