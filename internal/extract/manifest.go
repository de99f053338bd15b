package extract

import (
	"context"
	"log/slog"

	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/registry"
)

// ManifestPaths is the ordered list of candidate manifest locations probed
// in a repository. The first path that exists and parses as a JSON object
// wins; manifests are never aggregated.
var ManifestPaths = []string{
	"mcp.json",
	"mcp-manifest.json",
	".mcp/config.json",
	"manifest.json",
}

// ManifestResolver probes candidate manifest paths via the content fetcher.
type ManifestResolver struct {
	fetcher github.Client
	paths   []string
}

// NewManifestResolver creates a resolver over the default candidate paths.
func NewManifestResolver(fetcher github.Client) *ManifestResolver {
	return &ManifestResolver{
		fetcher: fetcher,
		paths:   ManifestPaths,
	}
}

// Resolve returns the fields of the first parseable manifest, or nil when
// no candidate yields one. A file that exists but fails to parse is treated
// as absent, not fatal; host errors on a single path are logged and likewise
// degrade to absent so one flaky path cannot abort extraction.
func (r *ManifestResolver) Resolve(ctx context.Context, ref github.RepoRef) *registry.Extracted {
	for _, path := range r.paths {
		data, found, err := r.fetcher.GetFileContent(ctx, ref.Owner, ref.Repo, path)
		if err != nil {
			slog.Warn("Error fetching manifest candidate",
				"repo", ref.String(), "path", path, "error", err)
			continue
		}
		if !found {
			continue
		}

		doc, ok := parseJSONObject(data)
		if !ok {
			slog.Warn("Manifest candidate is not a JSON object, skipping",
				"repo", ref.String(), "path", path)
			continue
		}

		slog.Info("Found manifest file", "repo", ref.String(), "path", path)
		return fieldsFromDocument(doc)
	}

	return nil
}
