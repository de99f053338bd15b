package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeContent wraps data the way the host does: base64 with newlines
// every 60 characters.
func encodeContent(t *testing.T, data string) string {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString([]byte(data))
	var wrapped []byte
	for i, r := range encoded {
		if i > 0 && i%60 == 0 {
			wrapped = append(wrapped, '\n')
		}
		wrapped = append(wrapped, byte(r))
	}
	return string(wrapped)
}

func TestGetDescriptor(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":        "hello-world",
			"description": "A test repository",
			"owner":       map[string]any{"login": "octocat"},
			"topics":      []string{"mcp", "demo"},
		})
	}))
	defer server.Close()

	client := NewClient("test-token", WithBaseURL(server.URL))

	descriptor, err := client.GetDescriptor(context.Background(), "octocat", "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "hello-world", descriptor.Name)
	assert.Equal(t, "octocat", descriptor.OwnerLogin)
	assert.Equal(t, "A test repository", descriptor.Description)
	assert.Equal(t, []string{"mcp", "demo"}, descriptor.Topics)
}

func TestGetDescriptorNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	_, err := client.GetDescriptor(context.Background(), "octocat", "missing")
	assert.ErrorIs(t, err, ErrRepoNotFound)
}

func TestGetDescriptorHostError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	_, err := client.GetDescriptor(context.Background(), "octocat", "hello-world")
	require.Error(t, err)

	var hostErr *HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, http.StatusForbidden, hostErr.StatusCode)
}

func TestGetFileContent(t *testing.T) {
	t.Parallel()

	manifest := `{"name":"Test Server"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/contents/mcp.json", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":  encodeContent(t, manifest),
			"encoding": "base64",
		})
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	data, found, err := client.GetFileContent(context.Background(), "octocat", "hello-world", "mcp.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, manifest, string(data))
}

func TestGetFileContentAbsent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	data, found, err := client.GetFileContent(context.Background(), "octocat", "hello-world", "mcp.json")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestGetFileContentNestedPath(t *testing.T) {
	t.Parallel()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":  encodeContent(t, "{}"),
			"encoding": "base64",
		})
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	_, found, err := client.GetFileContent(context.Background(), "octocat", "hello-world", ".mcp/config.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/repos/octocat/hello-world/contents/.mcp/config.json", gotPath)
}

func TestGetReadme(t *testing.T) {
	t.Parallel()

	readme := "# Hello\n\nA server for testing things end to end."
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/readme", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":  encodeContent(t, readme),
			"encoding": "base64",
		})
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	text, found, err := client.GetReadme(context.Background(), "octocat", "hello-world")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, readme, text)
}

func TestRetryOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":  "hello-world",
			"owner": map[string]any{"login": "octocat"},
		})
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL), WithMaxTries(5))

	descriptor, err := client.GetDescriptor(context.Background(), "octocat", "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "hello-world", descriptor.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-token", WithBaseURL(server.URL), WithMaxTries(5))

	_, err := client.GetDescriptor(context.Background(), "octocat", "hello-world")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
