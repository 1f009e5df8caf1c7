package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/ai"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/chunker"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/source"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/adapter/store"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/handler"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/middleware"
	"github.com/arturoeanton/go-learning-assistant-ollama/internal/service"
	"github.com/arturoeanton/go-learning-assistant-ollama/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Learning Assistant",
		"port", cfg.Port,
		"ollama_embed", cfg.OllamaEmbedURL,
		"ollama_chat", cfg.OllamaChatURL,
		"embedding_dimension", cfg.EmbeddingDimension,
	)

	// ── Chunking config (fail fast on a window that never advances) ──────
	wordChunker, err := chunker.NewWordChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		slog.Error("invalid chunking configuration", "chunk_size", cfg.ChunkSize, "chunk_overlap", cfg.ChunkOverlap, "error", err)
		os.Exit(1)
	}

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.InitSchema(context.Background(), cfg.EmbeddingDimension); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)

	// ── AI provider ──────────────────────────────────────────────────────
	ollamaAI := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaEmbedURL,
			Model:   cfg.OllamaEmbedModel,
			Token:   cfg.OllamaEmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.OllamaChatURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		},
	)

	embedder := ai.NewFallbackEmbedder(ollamaAI, cfg.EmbeddingDimension)

	probeCtx, probeCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := embedder.VerifyDimension(probeCtx); err != nil {
		probeCancel()
		slog.Error("embedding model dimensionality does not match EMBEDDING_DIMENSION", "configured", cfg.EmbeddingDimension, "error", err)
		os.Exit(1)
	}
	probeCancel()

	// ── Services ─────────────────────────────────────────────────────────
	ingestService := service.NewIngestService(pgStore, vectorStore, wordChunker, embedder)
	ragService := service.NewRAGService(embedder, ollamaAI, vectorStore, pgStore, service.RAGConfig{
		TopK:         cfg.RAGTopK,
		HistoryLimit: cfg.ChatHistoryLimit,
		Temperature:  cfg.ChatTemperature,
		MaxTokens:    cfg.ChatMaxTokens,
	})
	studyService := service.NewStudyService(ollamaAI, pgStore)

	youtubeSource := source.NewYouTubeSource()

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // streaming chat responses
		BodyLimit:    25 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(pgStore))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	sessionHandler := handler.NewSessionHandler(ingestService, pgStore, youtubeSource)
	sessionHandler.Register(api)

	chatHandler := handler.NewChatHandler(ragService, pgStore, pgStore)
	chatHandler.Register(api)

	flashcardsHandler := handler.NewFlashcardsHandler(studyService, pgStore, pgStore)
	flashcardsHandler.Register(api)

	quizHandler := handler.NewQuizHandler(studyService, pgStore, pgStore)
	quizHandler.Register(api)

	auditHandler := handler.NewAuditHandler(pgStore)
	auditHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
