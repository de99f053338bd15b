package app

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mcpdir/ingest-server/internal/config"
	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/ingest"
	"github.com/mcpdir/ingest-server/internal/store"
	"github.com/mcpdir/ingest-server/internal/store/inmemory"
)

// loadConfig loads the configuration file named by the --config flag. When
// no file is given, an empty config relying on environment credentials is
// returned.
func loadConfig() (*config.Config, error) {
	configPath := viper.GetString("config")
	if configPath == "" {
		return &config.Config{}, nil
	}
	return config.LoadConfig(configPath)
}

// buildPipeline constructs the content fetcher and ingestion pipeline. The
// token check happens here, before any network call, so a missing
// credential fails startup instead of mid-batch.
func buildPipeline(cfg *config.Config) (ingest.Ingestor, error) {
	token, err := cfg.GitHub.GetToken()
	if err != nil {
		return nil, err
	}

	opts := []github.Option{github.WithTimeout(cfg.GitHub.GetTimeout())}
	if cfg.GitHub.APIBaseURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHub.APIBaseURL))
	}

	return ingest.NewPipeline(github.NewClient(token, opts...)), nil
}

// buildStore connects to the configured datastore. With dryRun set, an
// in-memory store is used so no database credentials are needed and
// nothing is persisted.
func buildStore(ctx context.Context, cfg *config.Config, dryRun bool) (store.Store, error) {
	if dryRun {
		return inmemory.New(), nil
	}

	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required: set the database section in the config file")
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, err
	}

	return store.NewPostgresStore(ctx, connString)
}
