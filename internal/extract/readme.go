package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/registry"
)

// Description fallback bounds: the first non-heading line longer than
// minDescriptionLen is used verbatim, unless it exceeds maxDescriptionLen.
const (
	minDescriptionLen = 20
	maxDescriptionLen = 250
)

// fencedJSONRe matches the first fenced code block tagged as JSON.
var fencedJSONRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// DocExtractor derives candidate fields from a repository README. It is
// invoked only when no manifest was found.
type DocExtractor struct {
	fetcher github.Client
}

// NewDocExtractor creates a README document extractor.
func NewDocExtractor(fetcher github.Client) *DocExtractor {
	return &DocExtractor{fetcher: fetcher}
}

// Extract scans the README with three best-effort steps: an embedded JSON
// block, a description fallback, and keyword tag inference. Fields it
// cannot determine stay absent so later precedence rules can fill them from
// other sources. hostDescription is the description the host descriptor
// already reported: the first-line fallback only runs when no description is
// known at all, so it must not shadow the host's. Host errors fetching the
// README degrade to an empty result.
func (d *DocExtractor) Extract(ctx context.Context, ref github.RepoRef, hostDescription string, topics []string) *registry.Extracted {
	readme, found, err := d.fetcher.GetReadme(ctx, ref.Owner, ref.Repo)
	if err != nil {
		slog.Warn("Error fetching README", "repo", ref.String(), "error", err)
		return &registry.Extracted{}
	}
	if !found || readme == "" {
		slog.Debug("No README available", "repo", ref.String())
		return &registry.Extracted{}
	}

	extracted := extractEmbeddedJSON(readme, ref)

	if extracted.Description == nil && hostDescription == "" {
		if desc, ok := firstMeaningfulLine(readme); ok {
			extracted.Description = &desc
		}
	}

	// An empty tag list counts as "no tags known", so inference still runs.
	if len(extracted.Tags) == 0 && extracted.TagsRaw == nil {
		extracted.Tags = inferTags(readme, topics)
	}

	return extracted
}

// extractEmbeddedJSON parses the first fenced JSON block in the README, if
// any. A parse failure falls through to the other steps without aborting.
func extractEmbeddedJSON(readme string, ref github.RepoRef) *registry.Extracted {
	match := fencedJSONRe.FindStringSubmatch(readme)
	if match == nil {
		return &registry.Extracted{}
	}

	doc, ok := parseJSONObject([]byte(match[1]))
	if !ok {
		slog.Warn("Failed to parse JSON block in README", "repo", ref.String())
		return &registry.Extracted{}
	}

	slog.Info("Found JSON block in README", "repo", ref.String())
	return fieldsFromDocument(doc)
}

// firstMeaningfulLine returns the first README line whose trimmed length
// exceeds minDescriptionLen and which does not begin with a heading marker.
// Lines at or above maxDescriptionLen are rejected and leave the
// description unset.
func firstMeaningfulLine(readme string) (string, bool) {
	for _, line := range strings.Split(readme, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= minDescriptionLen || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if len(trimmed) < maxDescriptionLen {
			return trimmed, true
		}
		return "", false
	}
	return "", false
}

// inferTags spots a few well-known keywords in the README body and appends
// the host-reported topics. The substring probes are deliberately naive
// (e.g. " ai " misses the token at line boundaries); the matching semantics
// are kept for compatibility with previously ingested records.
func inferTags(readme string, topics []string) []string {
	lowered := strings.ToLower(readme)

	tags := make([]string, 0, len(topics)+3)
	if strings.Contains(lowered, " mcp ") || strings.Contains(lowered, "model context protocol") {
		tags = append(tags, "mcp")
	}
	if strings.Contains(lowered, " ai ") {
		tags = append(tags, "ai")
	}
	if strings.Contains(lowered, " llm") {
		tags = append(tags, "llm")
	}
	tags = append(tags, topics...)

	return registry.NormalizeTags(tags)
}
