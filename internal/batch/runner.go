// Package batch drives the ingestion pipeline over a list of repository
// URLs with deduplication against the datastore and host rate-limit
// respect.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/ingest"
	"github.com/mcpdir/ingest-server/internal/store"
)

// DefaultInterval is the minimum pause between consecutive repositories.
// This is a deliberate throttle against the host API's rate limit, not a
// performance knob; the runner must not be parallelized without an
// accompanying rate-limit budget.
const DefaultInterval = 200 * time.Millisecond

// Outcome classifies the result of processing one URL.
type Outcome string

// Possible outcomes for a single URL.
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeErrored   Outcome = "errored"
)

// ErrorDetail records a per-URL failure for the summary report.
type ErrorDetail struct {
	URL     string
	Message string
}

// Summary accumulates the results of a batch run. It is only ever mutated
// by the single sequential driver.
type Summary struct {
	Succeeded int
	Skipped   int
	Errored   int
	Errors    []ErrorDetail
}

// Render formats the summary as a human-readable report.
func (s *Summary) Render() string {
	var b strings.Builder
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "  succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(&b, "  skipped (already exists): %d\n", s.Skipped)
	fmt.Fprintf(&b, "  errors: %d\n", s.Errored)
	if len(s.Errors) > 0 {
		b.WriteString("Error details:\n")
		for _, detail := range s.Errors {
			fmt.Fprintf(&b, "  %s: %s\n", detail.URL, detail.Message)
		}
	}
	return b.String()
}

// Runner processes an ordered list of repository URLs strictly
// sequentially. One failing repository never halts the batch.
type Runner struct {
	ingestor ingest.Ingestor
	store    store.Store
	interval time.Duration
}

// NewRunner creates a batch runner. A non-positive interval falls back to
// DefaultInterval.
func NewRunner(ingestor ingest.Ingestor, st store.Store, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{
		ingestor: ingestor,
		store:    st,
		interval: interval,
	}
}

// Run processes each URL in order: skip if already stored, otherwise run
// the pipeline and insert, then wait the configured interval before the
// next URL. Cancellation is honored between iterations; a context error
// stops processing of the remaining URLs and returns the partial summary.
func (r *Runner) Run(ctx context.Context, urls []string) (*Summary, error) {
	summary := &Summary{}

	for i, rawURL := range urls {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("batch canceled after %d of %d URLs: %w", i, len(urls), err)
		}

		r.processOne(ctx, rawURL, summary)

		// Throttle between iterations, but never after the last one.
		if i < len(urls)-1 {
			if err := sleepCtx(ctx, r.interval); err != nil {
				return summary, fmt.Errorf("batch canceled after %d of %d URLs: %w", i+1, len(urls), err)
			}
		}
	}

	return summary, nil
}

// processOne handles a single URL, recording exactly one outcome.
func (r *Runner) processOne(ctx context.Context, rawURL string, summary *Summary) {
	slog.Info("Processing repository", "url", rawURL)

	key, err := canonicalKey(rawURL)
	if err != nil {
		summary.record(OutcomeErrored, rawURL, err)
		return
	}

	// Existence pre-check avoids wasted network fetches. The insert below
	// still handles a racing writer.
	if _, err := r.store.FindByURL(ctx, key); err == nil {
		slog.Info("Skipping repository, entry already exists", "url", rawURL)
		summary.record(OutcomeSkipped, rawURL, nil)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		summary.record(OutcomeErrored, rawURL, fmt.Errorf("datastore lookup failed: %w", err))
		return
	}

	entry, err := r.ingestor.Ingest(ctx, rawURL)
	if err != nil {
		summary.record(OutcomeErrored, rawURL, err)
		return
	}

	if err := r.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, store.ErrDuplicateEntry) {
			// Lost a race with a concurrent writer; the entry exists, so
			// this is a skip rather than an error.
			slog.Info("Entry inserted concurrently, skipping", "url", rawURL)
			summary.record(OutcomeSkipped, rawURL, nil)
			return
		}
		summary.record(OutcomeErrored, rawURL, fmt.Errorf("failed to persist entry: %w", err))
		return
	}

	slog.Info("Added server entry", "name", entry.Name, "author", entry.Author, "url", rawURL)
	summary.record(OutcomeSucceeded, rawURL, nil)
}

func (s *Summary) record(outcome Outcome, rawURL string, err error) {
	switch outcome {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeErrored:
		s.Errored++
		message := "unknown error"
		if err != nil {
			message = err.Error()
			slog.Warn("Failed to process repository", "url", rawURL, "error", err)
		}
		s.Errors = append(s.Errors, ErrorDetail{URL: rawURL, Message: message})
	}
}

// canonicalKey normalizes a raw URL to the unique key used for lookups so
// that the pre-check and the stored record agree.
func canonicalKey(rawURL string) (string, error) {
	ref, err := github.ParseRepoURL(rawURL)
	if err != nil {
		return "", err
	}
	return ref.CanonicalURL(), nil
}

// sleepCtx waits for the given duration or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
