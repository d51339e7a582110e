package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mbeaudoin/bsky-ingest/internal/validator"
)

// Config holds everything the ingest process needs. All values come from
// the environment (optionally seeded from a .env file); nothing global is
// mutated after Load returns.
type Config struct {
	// Identifier is the Bluesky handle used to create the API session.
	Identifier string `validate:"required"`
	// AppPassword is the Bluesky app password (not the account password).
	AppPassword string `validate:"required"`
	// PDSHost is the PDS base URL; empty means the bsky.social default.
	PDSHost string

	// AccountsFile is the path to the ordered account list.
	AccountsFile string `validate:"required"`

	StorageBackend string `validate:"oneof=sqlite firestore"`
	DatabasePath   string
	// ProjectID is the GCP project for the firestore backend.
	ProjectID string

	PollInterval time.Duration `validate:"gt=0"`
	FeedLimit    int           `validate:"gt=0"`
	Debug        bool
}

// Load reads configuration from the environment. A missing credential pair
// is an error here so the process fails before any network call.
func Load() (*Config, error) {
	// Best-effort: a .env file is a convenience, not a requirement.
	_ = godotenv.Load()

	identifier := os.Getenv("BLUESKY_HANDLE")
	if identifier == "" {
		return nil, fmt.Errorf("BLUESKY_HANDLE environment variable is required but not set")
	}

	appPassword := os.Getenv("BLUESKY_APP_PASSWORD")
	if appPassword == "" {
		return nil, fmt.Errorf("BLUESKY_APP_PASSWORD environment variable is required but not set")
	}

	accountsFile := os.Getenv("ACCOUNTS_FILE")
	if accountsFile == "" {
		accountsFile = "data/accounts.txt"
	}

	backend := os.Getenv("STORAGE_BACKEND")
	if backend == "" {
		backend = "sqlite"
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/posts.sqlite"
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if backend == "firestore" && projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when STORAGE_BACKEND=firestore")
	}

	pollInterval := 5 * time.Minute
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", v, err)
		}
		pollInterval = parsed
	}

	feedLimit := 10
	if v := os.Getenv("FEED_LIMIT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FEED_LIMIT %q: %w", v, err)
		}
		feedLimit = parsed
	}

	debug := false
	switch os.Getenv("DEBUG") {
	case "1", "true", "yes":
		debug = true
	case "":
	default:
		slog.Warn("Unrecognized DEBUG value, treating as false", "value", os.Getenv("DEBUG"))
	}

	cfg := &Config{
		Identifier:     identifier,
		AppPassword:    appPassword,
		PDSHost:        os.Getenv("BLUESKY_PDS"),
		AccountsFile:   accountsFile,
		StorageBackend: backend,
		DatabasePath:   databasePath,
		ProjectID:      projectID,
		PollInterval:   pollInterval,
		FeedLimit:      feedLimit,
		Debug:          debug,
	}

	if err := validator.New().ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
