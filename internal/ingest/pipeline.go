// Package ingest orchestrates the extraction-and-normalization pipeline
// that turns a repository URL into one validated server entry.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcpdir/ingest-server/internal/extract"
	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/registry"
)

// Ingestor produces a canonical server entry from a repository URL.
//
//go:generate mockgen -destination=mocks/mock_ingestor.go -package=mocks -source=pipeline.go Ingestor
type Ingestor interface {
	// Ingest runs the full pipeline for one repository. Fatal errors are
	// github.ErrInvalidReference, github.ErrRepoNotFound, *github.HostError
	// (descriptor fetch only) and registry.ErrInsufficientData; all parse
	// failures below that degrade to absent fields.
	Ingest(ctx context.Context, rawURL string) (*registry.ServerEntry, error)
}

// Pipeline is the default Ingestor. One ingestion is a sequential chain of
// blocking host calls with no internal parallelism.
type Pipeline struct {
	fetcher   github.Client
	manifests *extract.ManifestResolver
	documents *extract.DocExtractor
	now       func() time.Time
}

// NewPipeline creates a pipeline over the given content fetcher.
func NewPipeline(fetcher github.Client) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		manifests: extract.NewManifestResolver(fetcher),
		documents: extract.NewDocExtractor(fetcher),
		now:       time.Now,
	}
}

// Ingest parses the reference, fetches the descriptor, resolves a manifest
// (falling back to README extraction when none exists), merges the sources
// by precedence and validates the result into a canonical entry.
func (p *Pipeline) Ingest(ctx context.Context, rawURL string) (*registry.ServerEntry, error) {
	ref, err := github.ParseRepoURL(rawURL)
	if err != nil {
		return nil, err
	}

	descriptor, err := p.fetcher.GetDescriptor(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, err
	}

	manifest := p.manifests.Resolve(ctx, ref)

	// The README is only consulted when no manifest was found.
	var document *registry.Extracted
	if manifest == nil {
		document = p.documents.Extract(ctx, ref, descriptor.Description, descriptor.Topics)
	}

	merged := extract.Merge(manifest, document, descriptor)

	entry, err := registry.Validate(merged, registry.RepoInfo{
		Slug:       ref.Repo,
		OwnerLogin: descriptor.OwnerLogin,
		GithubURL:  ref.CanonicalURL(),
	}, p.now())
	if err != nil {
		return nil, err
	}

	slog.Info("Ingested repository",
		"githubUrl", entry.GithubURL, "name", entry.Name, "author", entry.Author)
	return entry, nil
}
