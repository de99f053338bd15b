package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcpdir/ingest-server/internal/registry"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

//go:embed schema.sql
var schemaSQL string

// PostgresStore is a Store implementation backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and ensures the schema exists.
// The caller owns the store's lifecycle and must Close it when done.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	slog.Info("Database connection established")
	return &PostgresStore{pool: pool}, nil
}

const selectColumns = `
	id, name, author, description, tools_count, authentication, deployment,
	location, tags, icon_url, github_url,
	detailed_info_statistics_requests_per_month,
	detailed_info_statistics_uptime,
	detailed_info_statistics_average_response_time,
	detailed_info_capabilities,
	detailed_info_documentation_url,
	detailed_info_usage_instructions,
	last_fetched_from_github_at`

// FindByURL looks up an entry by its unique github URL.
func (s *PostgresStore) FindByURL(ctx context.Context, githubURL string) (*registry.ServerEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM mcp_servers WHERE github_url = $1`, githubURL)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, githubURL)
		}
		return nil, fmt.Errorf("failed to query server entry: %w", err)
	}
	return entry, nil
}

// Insert persists a new entry. A unique-key conflict on github_url yields
// ErrDuplicateEntry so a racing writer is handled gracefully.
func (s *PostgresStore) Insert(ctx context.Context, entry *registry.ServerEntry) error {
	if entry == nil {
		return fmt.Errorf("server entry is required")
	}

	info := entry.DetailedInfo
	if info == nil {
		info = &registry.DetailedInfo{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO mcp_servers (
			id, name, author, description, tools_count, authentication,
			deployment, location, tags, icon_url, github_url,
			detailed_info_statistics_requests_per_month,
			detailed_info_statistics_uptime,
			detailed_info_statistics_average_response_time,
			detailed_info_capabilities,
			detailed_info_documentation_url,
			detailed_info_usage_instructions,
			last_fetched_from_github_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		entry.ID, entry.Name, entry.Author, nullable(entry.Description),
		entry.ToolsCount, string(entry.Authentication), string(entry.Deployment),
		nullable(entry.Location), entry.Tags, nullable(entry.IconURL), entry.GithubURL,
		nullable(info.Statistics.RequestsPerMonth),
		nullable(info.Statistics.Uptime),
		nullable(info.Statistics.AverageResponseTime),
		nullable(info.Capabilities),
		nullable(info.DocumentationURL),
		nullable(info.UsageInstructions),
		entry.LastFetched,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, entry.GithubURL)
		}
		return fmt.Errorf("failed to insert server entry: %w", err)
	}

	return nil
}

// List returns all stored entries, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]*registry.ServerEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM mcp_servers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list server entries: %w", err)
	}
	defer rows.Close()

	var entries []*registry.ServerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan server entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate server entries: %w", err)
	}

	return entries, nil
}

// Ping verifies the database connection is still alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	slog.Info("Closing database connection")
	s.pool.Close()
}

// scanEntry reads one row into a ServerEntry. The flattened detailed-info
// columns are folded back into the nested struct, which is omitted entirely
// when every column was null.
func scanEntry(row pgx.Row) (*registry.ServerEntry, error) {
	var (
		entry                                  registry.ServerEntry
		description, location, iconURL         *string
		requestsPerMonth, uptime, responseTime *string
		capabilities, docsURL, usage           *string
		authentication, deployment             string
	)

	err := row.Scan(
		&entry.ID, &entry.Name, &entry.Author, &description, &entry.ToolsCount,
		&authentication, &deployment, &location, &entry.Tags, &iconURL,
		&entry.GithubURL, &requestsPerMonth, &uptime, &responseTime,
		&capabilities, &docsURL, &usage, &entry.LastFetched,
	)
	if err != nil {
		return nil, err
	}

	entry.Authentication = registry.Authentication(authentication)
	entry.Deployment = registry.Deployment(deployment)
	entry.Description = deref(description)
	entry.Location = deref(location)
	entry.IconURL = deref(iconURL)

	if requestsPerMonth != nil || uptime != nil || responseTime != nil ||
		capabilities != nil || docsURL != nil || usage != nil {
		entry.DetailedInfo = &registry.DetailedInfo{
			Statistics: registry.Statistics{
				RequestsPerMonth:    deref(requestsPerMonth),
				Uptime:              deref(uptime),
				AverageResponseTime: deref(responseTime),
			},
			Capabilities:      deref(capabilities),
			DocumentationURL:  deref(docsURL),
			UsageInstructions: deref(usage),
		}
	}

	return &entry, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
