package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbeaudoin/bsky-ingest/internal/bluesky"
	"github.com/mbeaudoin/bsky-ingest/internal/config"
	"github.com/mbeaudoin/bsky-ingest/internal/processor"
	"github.com/mbeaudoin/bsky-ingest/internal/scraper"
	"github.com/mbeaudoin/bsky-ingest/internal/storage"
	"github.com/mbeaudoin/bsky-ingest/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Debug)
	slog.Info("Starting Bluesky post ingestor")

	accounts, err := config.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		slog.Error("Critical error loading account list", "error", err)
		os.Exit(1)
	}
	slog.Debug("Loaded accounts", "count", len(accounts), "path", cfg.AccountsFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Critical error initializing storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	client := bluesky.NewClient(cfg.PDSHost)
	// Retry transient startup failures; a rejected credential pair still
	// exhausts quickly and aborts the start.
	err = util.RetryWithBackoff(ctx, 3, time.Second, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying Bluesky login", "attempt", attempt)
		}
		return client.Login(ctx, cfg.Identifier, cfg.AppPassword)
	})
	if err != nil {
		slog.Error("Critical error authenticating with Bluesky", "error", err)
		os.Exit(1)
	}
	slog.Info("Authenticated with Bluesky", "identifier", cfg.Identifier)

	ingestor := processor.New(client, store, scraper.New(), accounts, cfg.FeedLimit)
	processor.NewLoop(ingestor, cfg.PollInterval).Run(ctx)

	slog.Info("Ingestor stopped.")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == "firestore" {
		return storage.NewFirestoreStore(ctx, cfg.ProjectID)
	}
	return storage.NewSQLiteStore(cfg.DatabasePath)
}
