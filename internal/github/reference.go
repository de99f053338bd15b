package github

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidReference indicates a repository URL that does not identify an
// owner/repo pair on a known host.
var ErrInvalidReference = errors.New("invalid repository reference")

// RepoRef identifies a repository by its owner and name. It is created once
// per ingestion attempt and never mutated.
type RepoRef struct {
	Owner string
	Repo  string
}

// CanonicalURL returns the normalized repository URL used as the unique key
// for stored records.
func (r RepoRef) CanonicalURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Repo)
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// ParseRepoURL parses a GitHub repository URL into a RepoRef. The path must
// contain at least two non-empty segments; the first two are taken as owner
// and repo, anything after them is ignored. A trailing ".git" suffix on the
// repo segment is stripped. Performs no network access.
func ParseRepoURL(rawURL string) (RepoRef, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return RepoRef{}, fmt.Errorf("%w: %s", ErrInvalidReference, rawURL)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return RepoRef{}, fmt.Errorf("%w: unsupported scheme in %s", ErrInvalidReference, rawURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return RepoRef{}, fmt.Errorf("%w: unsupported host in %s", ErrInvalidReference, rawURL)
	}

	var segments []string
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) < 2 {
		return RepoRef{}, fmt.Errorf("%w: expected owner/repo in %s", ErrInvalidReference, rawURL)
	}

	repo := strings.TrimSuffix(segments[1], ".git")
	if repo == "" {
		return RepoRef{}, fmt.Errorf("%w: empty repository name in %s", ErrInvalidReference, rawURL)
	}

	return RepoRef{Owner: segments[0], Repo: repo}, nil
}
