package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/domain/index"
	"github.com/docuchat/docuchat/internal/infrastructure/llmapi"
	"github.com/docuchat/docuchat/internal/infrastructure/logger"
	"github.com/docuchat/docuchat/internal/infrastructure/observability"
	"github.com/docuchat/docuchat/internal/infrastructure/uploads"
	"github.com/docuchat/docuchat/internal/infrastructure/vectorstore"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver"
)

// Application bundles the long-running pieces of the server process.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	llmClient, err := llmapi.NewClient(llmapi.Config{
		BaseURL:        cfg.OpenAIBaseURL,
		APIKey:         cfg.OpenAIAPIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Temperature:    cfg.ChatTemperature,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize llm client")
	}

	store := vectorstore.NewClient(vectorstore.Config{
		BaseURL: cfg.QdrantURL,
		APIKey:  cfg.QdrantAPIKey,
		Timeout: cfg.QdrantTimeout,
	}, log)

	storage, err := uploads.NewStorage(cfg.UploadDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize upload storage")
	}

	indexer := index.NewService(index.Config{
		ChunkSize:        cfg.ChunkSize,
		ChunkOverlap:     cfg.ChunkOverlap,
		RetrievalTopK:    cfg.RetrievalTopK,
		VectorDimensions: cfg.VectorDimensions,
	}, llmClient, llmClient, store, log)

	// A failed probe is not fatal; the indexer retries lazily and health
	// reports degraded until it succeeds.
	if err := indexer.Init(ctx); err != nil {
		log.Error().Err(err).Msg("initialize RAG indexer")
	}

	httpServer := httpserver.New(cfg, log, indexer, storage)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
