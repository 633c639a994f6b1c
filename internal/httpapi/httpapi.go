// Package httpapi exposes the document, collection, search, and batch-job
// core services over HTTP: a thin chi router translating JSON requests into
// service calls and chonkiterr kinds into status codes.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chonkit/chonkit/internal/batch"
	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/service/document"
	"github.com/chonkit/chonkit/internal/service/vector"
)

// Server wires HTTP handlers to the document and vector core services and
// the batch embedder.
type Server struct {
	router    http.Handler
	documents *document.Service
	vectors   *vector.Service
	batch     *batch.Embedder
	logger    zerolog.Logger
}

// New constructs a Server with the provided dependencies. allowedOrigins
// configures CORS for the router; pass nil to disable cross-origin access.
func New(documents *document.Service, vectors *vector.Service, batchEmbedder *batch.Embedder, allowedOrigins []string, logger zerolog.Logger) *Server {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s := &Server{
		router:    mux,
		documents: documents,
		vectors:   vectors,
		batch:     batchEmbedder,
		logger:    logger.With().Str("component", "httpapi").Logger(),
	}

	mux.Get("/api/health", s.handleHealth)

	mux.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handleUploadDocument)
		r.Post("/sync", s.handleSyncDocuments)
		r.Get("/{id}", s.handleGetDocument)
		r.Delete("/{id}", s.handleDeleteDocument)
		r.Get("/{id}/config", s.handleGetDocumentConfig)
		r.Get("/{id}/content", s.handleGetDocumentContent)
		r.Get("/{id}/chunks", s.handleGetDocumentChunks)
		r.Put("/{id}/parser", s.handleUpdateParser)
		r.Put("/{id}/chunker", s.handleUpdateChunker)
		r.Post("/{id}/parser/preview", s.handleParsePreview)
		r.Post("/{id}/chunker/preview", s.handleChunkPreview)
	})

	mux.Route("/api/collections", func(r chi.Router) {
		r.Get("/", s.handleListCollections)
		r.Post("/", s.handleCreateCollection)
		r.Get("/{id}", s.handleGetCollection)
		r.Delete("/{id}", s.handleDeleteCollection)
		r.Post("/{id}/embeddings", s.handleCreateEmbeddings)
		r.Get("/{id}/embeddings/{documentId}", s.handleGetEmbeddings)
		r.Delete("/{id}/embeddings/{documentId}", s.handleDeleteEmbeddings)
	})

	mux.Get("/api/embedders/{provider}/models", s.handleListEmbeddingModels)
	mux.Post("/api/search", s.handleSearch)
	mux.Post("/api/batch", s.handleSubmitBatch)

	return s
}

// ServeHTTP exposes the router so Server satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf("failed to write JSON response: %v\n", err)
	}
}

// writeError maps a core error to an HTTP status via its chonkiterr.Kind,
// falling back to 500 for anything that isn't a *chonkiterr.Error.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case chonkiterr.Is(err, chonkiterr.KindValidation),
		chonkiterr.Is(err, chonkiterr.KindInvalidFileName),
		chonkiterr.Is(err, chonkiterr.KindUnsupportedFileType),
		chonkiterr.Is(err, chonkiterr.KindChunks):
		return http.StatusBadRequest
	case chonkiterr.Is(err, chonkiterr.KindDoesNotExist):
		return http.StatusNotFound
	case chonkiterr.Is(err, chonkiterr.KindAlreadyExists):
		return http.StatusConflict
	case chonkiterr.Is(err, chonkiterr.KindInvalidProvider),
		chonkiterr.Is(err, chonkiterr.KindInvalidEmbeddingModel):
		return http.StatusUnprocessableEntity
	case chonkiterr.Is(err, chonkiterr.KindEmbedding),
		chonkiterr.Is(err, chonkiterr.KindBatch),
		chonkiterr.Is(err, chonkiterr.KindInfra):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
}

// parseUUID extracts and parses a chi URL param, writing a 400 and
// reporting ok=false if it's missing or malformed.
func parseUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		badRequest(w, fmt.Errorf("missing %s", param))
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid %s: %w", param, err))
		return uuid.UUID{}, false
	}
	return id, true
}

// parsePaginationSort reads page/per_page/sort_by/sort_dir query parameters
// into a model.PaginationSort, leaving unset fields to the service layer's
// defaults.
func parsePaginationSort(r *http.Request) model.PaginationSort {
	q := r.URL.Query()
	return model.PaginationSort{
		Pagination: model.Pagination{
			Page:    atoiOr(q.Get("page"), 0),
			PerPage: atoiOr(q.Get("per_page"), 0),
		},
		SortBy:  q.Get("sort_by"),
		SortDir: model.SortDirection(q.Get("sort_dir")),
	}
}

func parseUUIDString(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func chiURLParamOrEmpty(r *http.Request, param string) string {
	return chi.URLParam(r, param)
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
