package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mcpdir/ingest-server/internal/github"
	"github.com/mcpdir/ingest-server/internal/ingest"
	"github.com/mcpdir/ingest-server/internal/registry"
	"github.com/mcpdir/ingest-server/internal/store"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitRequest is the payload for submitting a repository.
type SubmitRequest struct {
	GithubURL string `json:"githubUrl"`
}

// ListResponse wraps the server entry listing.
type ListResponse struct {
	Servers []*registry.ServerEntry `json:"servers"`
	Total   int                     `json:"total"`
}

// Routes defines the routes for the submission API with dependency
// injection.
type Routes struct {
	ingestor ingest.Ingestor
	store    store.Store
}

// NewRoutes creates a new Routes instance with the provided dependencies.
func NewRoutes(ingestor ingest.Ingestor, st store.Store) *Routes {
	return &Routes{
		ingestor: ingestor,
		store:    st,
	}
}

// Router creates a router for the submission API.
func (routes *Routes) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/servers", routes.listServers)
	r.Post("/servers", routes.submitServer)
	return r
}

// getHealth handles health check requests.
func (routes *Routes) getHealth(w http.ResponseWriter, r *http.Request) {
	if err := routes.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "datastore unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listServers returns all stored server entries.
func (routes *Routes) listServers(w http.ResponseWriter, r *http.Request) {
	entries, err := routes.store.List(r.Context())
	if err != nil {
		slog.Error("Failed to list server entries", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list servers"})
		return
	}
	if entries == nil {
		entries = []*registry.ServerEntry{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Servers: entries, Total: len(entries)})
}

// submitServer runs the ingestion pipeline for one repository URL and
// persists the result. Status codes follow the pipeline's error taxonomy:
// invalid references and insufficient extractions are the caller's problem,
// host failures are the upstream's.
func (routes *Routes) submitServer(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GithubURL == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "githubUrl is required"})
		return
	}

	ref, err := github.ParseRepoURL(req.GithubURL)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	// Short-circuit on existing entries before touching the host API.
	if _, err := routes.store.FindByURL(r.Context(), ref.CanonicalURL()); err == nil {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "this repository has already been submitted"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		slog.Error("Datastore lookup failed", "url", req.GithubURL, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "datastore lookup failed"})
		return
	}

	entry, err := routes.ingestor.Ingest(r.Context(), req.GithubURL)
	if err != nil {
		routes.writeIngestError(w, req.GithubURL, err)
		return
	}

	if err := routes.store.Insert(r.Context(), entry); err != nil {
		if errors.Is(err, store.ErrDuplicateEntry) {
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "this repository has already been submitted"})
			return
		}
		slog.Error("Failed to persist server entry", "url", req.GithubURL, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to persist entry"})
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (*Routes) writeIngestError(w http.ResponseWriter, rawURL string, err error) {
	var hostErr *github.HostError
	switch {
	case errors.Is(err, github.ErrInvalidReference),
		errors.Is(err, registry.ErrInsufficientData):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, github.ErrRepoNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.As(err, &hostErr):
		slog.Error("Host API failure during ingestion", "url", rawURL, "error", err)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "repository host unavailable"})
	default:
		slog.Error("Ingestion failed", "url", rawURL, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to process repository"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
