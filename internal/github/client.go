// Package github provides repository reference parsing and a thin,
// retryable accessor over the GitHub REST API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultBaseURL is the GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response size (10MB).
	MaxResponseSize = 10 * 1024 * 1024

	// UserAgent is the user agent string for API requests.
	UserAgent = "mcpdir-ingest/1.0"

	apiVersion      = "2022-11-28"
	defaultMaxTries = 3
)

// Client is an interface for the repository host API operations the
// ingestion pipeline needs.
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client
type Client interface {
	// GetDescriptor fetches repository-level metadata. A missing repository
	// yields ErrRepoNotFound; other failures yield a HostError. Both are
	// fatal for the ingestion of that repository.
	GetDescriptor(ctx context.Context, owner, repo string) (*Descriptor, error)

	// GetFileContent fetches a file by path and returns its decoded bytes.
	// The second return value reports presence: a 404 yields (nil, false, nil).
	GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, bool, error)

	// GetReadme fetches the repository README text with the same absence
	// contract as GetFileContent.
	GetReadme(ctx context.Context, owner, repo string) (string, bool, error)
}

// Descriptor is a read-only snapshot of repository-level metadata as
// reported by the host, independent of any manifest.
type Descriptor struct {
	Name        string
	OwnerLogin  string
	Description string
	Topics      []string
}

// contentResponse is the host's file content payload. Content arrives
// base64-encoded, wrapped with newlines.
type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// restClient is the default Client implementation over the GitHub REST API.
type restClient struct {
	baseURL  string
	token    string
	client   *http.Client
	maxTries uint
}

// Option configures the REST client.
type Option func(*restClient)

// WithBaseURL overrides the API endpoint, primarily for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *restClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout overrides the request timeout. Zero keeps the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *restClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithMaxTries overrides the retry budget for transient failures.
func WithMaxTries(tries uint) Option {
	return func(c *restClient) {
		if tries > 0 {
			c.maxTries = tries
		}
	}
}

// NewClient creates a GitHub API client authenticated with the given token.
// The client is constructed once at process start and injected into the
// pipeline; there are no package-level instances.
func NewClient(token string, opts ...Option) Client {
	c := &restClient{
		baseURL:  DefaultBaseURL,
		token:    token,
		client:   &http.Client{Timeout: DefaultTimeout},
		maxTries: defaultMaxTries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// descriptorResponse matches the fields of the repository endpoint payload
// this pipeline consumes.
type descriptorResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
	Topics []string `json:"topics"`
}

// GetDescriptor fetches repository-level metadata.
func (c *restClient) GetDescriptor(ctx context.Context, owner, repo string) (*Descriptor, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo)))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRepoNotFound, owner, repo)
		}
		return nil, err
	}

	var resp descriptorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode repository descriptor: %w", err)
	}

	return &Descriptor{
		Name:        resp.Name,
		OwnerLogin:  resp.Owner.Login,
		Description: resp.Description,
		Topics:      resp.Topics,
	}, nil
}

// GetFileContent fetches a file by path, decoding the base64 payload.
func (c *restClient) GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, bool, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), escapePath(path)))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	decoded, err := decodeContent(body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode content of %s: %w", path, err)
	}
	return decoded, true, nil
}

// GetReadme fetches the repository README text.
func (c *restClient) GetReadme(ctx context.Context, owner, repo string) (string, bool, error) {
	body, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/readme", url.PathEscape(owner), url.PathEscape(repo)))
	if err != nil {
		if errors.Is(err, errNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	decoded, err := decodeContent(body)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode README content: %w", err)
	}
	return string(decoded), true, nil
}

// errNotFound is an internal marker translated by each operation into its
// public absence contract.
var errNotFound = errors.New("not found")

// get performs a GET request against the API, retrying transient failures
// with exponential backoff. Client errors other than 429 are permanent.
func (c *restClient) get(ctx context.Context, path string) ([]byte, error) {
	requestURL := c.baseURL + path

	operation := func() ([]byte, error) {
		body, err := c.getOnce(ctx, requestURL)
		if err == nil {
			return body, nil
		}

		var hostErr *HostError
		if errors.As(err, &hostErr) {
			// Retry on rate limiting and server errors only.
			if hostErr.StatusCode == http.StatusTooManyRequests || hostErr.StatusCode >= 500 {
				slog.Debug("Retrying transient host error", "url", requestURL, "status", hostErr.StatusCode)
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		if errors.Is(err, errNotFound) || errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		// Transport-level failure, worth retrying.
		return nil, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
}

func (c *restClient) getOnce(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, NewHostError(resp.StatusCode, requestURL, resp.Status)
	}

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

// decodeContent extracts the decoded bytes from a content response. The
// host wraps the base64 payload at 60 columns, so whitespace is stripped
// before decoding.
func decodeContent(body []byte) ([]byte, error) {
	var resp contentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode content response: %w", err)
	}
	if resp.Content == "" {
		return nil, nil
	}
	if resp.Encoding != "" && resp.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported content encoding: %s", resp.Encoding)
	}

	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, resp.Content)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 content: %w", err)
	}
	return decoded, nil
}

// escapePath escapes each segment of a repository file path while keeping
// the separators, so nested manifest paths like ".mcp/config.json" work.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
