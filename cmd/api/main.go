package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"golang.org/x/time/rate"

	"github.com/produckai/voc-engine/internal/api/handlers"
	"github.com/produckai/voc-engine/internal/api/middleware"
	"github.com/produckai/voc-engine/internal/config"
	"github.com/produckai/voc-engine/internal/embeddings"
	"github.com/produckai/voc-engine/internal/googleai"
	"github.com/produckai/voc-engine/internal/jobs"
	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/observability"
	"github.com/produckai/voc-engine/internal/openai"
	"github.com/produckai/voc-engine/internal/repository"
	"github.com/produckai/voc-engine/internal/service"
	"github.com/produckai/voc-engine/pkg/database"
)

const directoryCacheSize = 1000

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Initialize database connection
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize the embedding/generation collaborators per configured provider
	embeddingClient, textGenerator, err := setupProviders(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize AI providers", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	feedbackRepo := repository.NewFeedbackRepository(db)
	themesRepo := repository.NewThemesRepository(db)
	insightsRepo := repository.NewInsightsRepository(db)
	scoresRepo := repository.NewScoresRepository(db)
	customersRepo := repository.NewCustomersRepository(db)
	runsRepo := repository.NewPipelineRunsRepository(db)
	clusterStore := repository.NewClusterStore(db)

	// Initialize River job queue if enabled and an embedding client is configured
	var riverClient *river.Client[pgx.Tx]
	var jobInserter jobs.JobInserter
	if cfg.RiverEnabled && embeddingClient != nil {
		riverClient, err = initRiver(ctx, db, cfg, embeddingClient, feedbackRepo)
		if err != nil {
			slog.Error("Failed to initialize River job queue", "error", err)
			os.Exit(1)
		}
		jobInserter = jobs.NewRiverJobInserter(riverClient)
		slog.Info("River job queue enabled",
			"workers", cfg.RiverWorkers,
			"max_retries", cfg.RiverMaxRetries,
			"rate_limit", cfg.EmbeddingRateLimit,
		)
	} else {
		slog.Info("Embedding jobs disabled (no provider configured or RIVER_ENABLED=false)")
	}

	// Initialize services
	directory, err := service.NewDirectoryService(customersRepo, directoryCacheSize)
	if err != nil {
		slog.Error("Failed to initialize customer directory", "error", err)
		os.Exit(1)
	}

	weights := service.NewWeightsHolder()
	scorer := service.NewVOCScorer(service.ScorerConfig{
		ACVCeiling:          cfg.VOCACVCeiling,
		RecencyHalfLifeDays: cfg.VOCRecencyHalfLifeDays,
	}, weights)

	clusterer := service.NewClusteringService()
	builder := service.NewThemeBuilder(textGenerator)
	synthesizer := service.NewInsightSynthesizer(textGenerator, directory)

	feedbackService := service.NewFeedbackService(feedbackRepo, jobInserter)
	pipelineService := service.NewPipelineService(clusterer, builder, synthesizer, feedbackRepo, runsRepo, clusterStore)
	scoringService := service.NewScoringService(scorer, feedbackRepo, themesRepo, insightsRepo, scoresRepo, directory)
	rankingService := service.NewRankingService(scoresRepo, insightsRepo, feedbackRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	pipelineHandler := handlers.NewPipelineHandler(pipelineService, models.ClusterRequest{
		MinClusterSize: cfg.ClusterMinClusterSize,
		MaxClusters:    cfg.ClusterMaxClusters,
		MinSimilarity:  cfg.ClusterMinSimilarity,
	})
	themesHandler := handlers.NewThemesHandler(themesRepo)
	insightsHandler := handlers.NewInsightsHandler(insightsRepo)
	scoresHandler := handlers.NewScoresHandler(scoringService, weights, rankingService)

	// Set up public endpoints (no authentication required)
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)

	// Set up protected endpoints (authentication required)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/feedback", feedbackHandler.Create)
	protectedMux.HandleFunc("GET /v1/feedback", feedbackHandler.List)
	protectedMux.HandleFunc("GET /v1/feedback/{id}", feedbackHandler.Get)

	protectedMux.HandleFunc("POST /v1/pipeline/cluster", pipelineHandler.Cluster)
	protectedMux.HandleFunc("GET /v1/pipeline/status", pipelineHandler.Status)

	protectedMux.HandleFunc("GET /v1/themes", themesHandler.List)
	protectedMux.HandleFunc("GET /v1/themes/{id}", themesHandler.Get)

	protectedMux.HandleFunc("GET /v1/insights", insightsHandler.List)
	protectedMux.HandleFunc("GET /v1/insights/{id}", insightsHandler.Get)

	protectedMux.HandleFunc("POST /v1/scores", scoresHandler.Score)
	protectedMux.HandleFunc("GET /v1/scores/weights", scoresHandler.GetWeights)
	protectedMux.HandleFunc("PUT /v1/scores/weights", scoresHandler.UpdateWeights)
	protectedMux.HandleFunc("GET /v1/scores/top", scoresHandler.Top)
	protectedMux.HandleFunc("GET /v1/scores/trends", scoresHandler.Trends)

	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)

	// Combine both handlers
	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux) // Catch-all for public routes (/health, etc.)

	// Request ID first so access logs carry it
	var handler http.Handler = mainMux
	handler = middleware.MaxBody(cfg.MaxRequestBodyBytes)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // clustering runs are synchronous
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// 2. Stop River (waits for in-flight jobs to complete)
	if riverClient != nil {
		slog.Info("Stopping River job queue...")
		if err := riverClient.Stop(shutdownCtx); err != nil {
			slog.Error("River forced to shutdown", "error", err)
		}
		slog.Info("River job queue stopped")
	}

	slog.Info("Server exited")
}

// setupProviders creates the embedding client and text generator for the
// configured provider. Both are nil when EMBEDDING_PROVIDER is unset; the
// pipeline then degrades to fallback titles and stub insights.
func setupProviders(ctx context.Context, cfg *config.Config) (embeddings.Client, service.TextGenerator, error) {
	switch cfg.EmbeddingProvider {
	case "":
		slog.Info("AI providers disabled (EMBEDDING_PROVIDER not set)")
		return nil, nil, nil
	case "openai":
		client := openai.NewClient(cfg.EmbeddingAPIKey,
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
			openai.WithGenerationModel(cfg.GenerationModel),
			openai.WithGenerationTimeout(time.Duration(cfg.GenerationTimeoutSeconds)*time.Second),
		)
		slog.Info("AI providers enabled", "provider", "openai", "dimensions", cfg.EmbeddingDimensions)
		return client, client, nil
	case "google":
		client, err := googleai.NewClient(ctx, cfg.EmbeddingAPIKey,
			googleai.WithEmbeddingModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
			googleai.WithGenerationModel(cfg.GenerationModel),
			googleai.WithGenerationTimeout(time.Duration(cfg.GenerationTimeoutSeconds)*time.Second),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("create google client: %w", err)
		}
		slog.Info("AI providers enabled", "provider", "google", "dimensions", cfg.EmbeddingDimensions)
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

// setupLogging configures slog with the specified log level. The trace context
// handler adds request_id (and trace/span IDs when present) to every record.
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := observability.NewTraceContextHandler(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(slog.New(handler))
}

// initRiver initializes the River job queue client and workers
func initRiver(
	ctx context.Context,
	db *pgxpool.Pool,
	cfg *config.Config,
	embeddingClient embeddings.Client,
	feedbackRepo *repository.FeedbackRepository,
) (*river.Client[pgx.Tx], error) {
	// Rate limiter shared by all embedding workers
	rateLimiter := rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1)

	embeddingWorker := jobs.NewEmbeddingWorker(jobs.EmbeddingWorkerDeps{
		EmbeddingClient: embeddingClient,
		Feedback:        feedbackRepo,
		RateLimiter:     rateLimiter,
	})

	workers := river.NewWorkers()
	river.AddWorker(workers, embeddingWorker)

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RiverWorkers},
		},
		Workers:      workers,
		ErrorHandler: &jobs.ErrorHandler{},
		JobTimeout:   60 * time.Second, // Timeout for individual jobs
		MaxAttempts:  cfg.RiverMaxRetries,
	})
	if err != nil {
		return nil, err
	}

	// Start River (begins processing jobs)
	if err := riverClient.Start(ctx); err != nil {
		return nil, err
	}

	return riverClient, nil
}
