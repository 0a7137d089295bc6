// Command backfill-embeddings enqueues embedding jobs for every feedback
// record that is still missing an embedding. The running API server's River
// workers pick the jobs up.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/produckai/voc-engine/internal/config"
	"github.com/produckai/voc-engine/internal/jobs"
	"github.com/produckai/voc-engine/internal/repository"
	"github.com/produckai/voc-engine/pkg/database"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Insert-only client: no workers registered, jobs run in the API process.
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	inserter := jobs.NewRiverJobInserter(riverClient)
	feedbackRepo := repository.NewFeedbackRepository(db)

	stats, err := jobs.Backfill(ctx, feedbackRepo, inserter)
	if err != nil {
		slog.Error("Backfill failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Backfill complete", "enqueued", stats.Enqueued, "errors", stats.Errors)
}
