package github

import (
	"errors"
	"fmt"
)

// ErrRepoNotFound indicates the repository itself does not exist or is not
// visible to the configured credentials.
var ErrRepoNotFound = errors.New("repository not found")

// HostError represents a non-404 failure reported by the GitHub API,
// including rate limiting and server errors.
type HostError struct {
	StatusCode int
	URL        string
	Message    string
}

// Error returns the error message.
func (e *HostError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHostError creates a new HostError.
func NewHostError(statusCode int, url, message string) error {
	return &HostError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}
