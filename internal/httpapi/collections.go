package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/service/vector"
)

type collectionResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Model             string `json:"model"`
	EmbeddingProvider string `json:"embedding_provider"`
	VectorProvider    string `json:"vector_provider"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func toCollectionResponse(c model.Collection) collectionResponse {
	return collectionResponse{
		ID: c.ID.String(), Name: c.Name, Model: c.Model,
		EmbeddingProvider: c.EmbeddingProvider, VectorProvider: c.VectorProvider,
		CreatedAt: c.CreatedAt.Format(http.TimeFormat), UpdatedAt: c.UpdatedAt.Format(http.TimeFormat),
	}
}

type collectionDisplayResponse struct {
	collectionResponse
	DocumentCount int `json:"document_count"`
}

func toCollectionDisplayResponse(d model.CollectionDisplay) collectionDisplayResponse {
	return collectionDisplayResponse{collectionResponse: toCollectionResponse(d.Collection), DocumentCount: d.DocumentCount}
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	list, err := s.vectors.ListCollectionsDisplay(r.Context(), parsePaginationSort(r))
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]collectionDisplayResponse, len(list.Items))
	for i, d := range list.Items {
		items[i] = toCollectionDisplayResponse(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": items, "total": list.Total})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	display, err := s.vectors.GetCollectionDisplay(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionDisplayResponse(display))
}

type createCollectionRequest struct {
	Name              string `json:"name"`
	Model             string `json:"model"`
	VectorProvider    string `json:"vector_provider"`
	EmbeddingProvider string `json:"embedding_provider"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}

	collection, err := s.vectors.CreateCollection(r.Context(), vector.CreateCollectionParams{
		Name: req.Name, Model: req.Model, VectorProvider: req.VectorProvider, EmbeddingProvider: req.EmbeddingProvider,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionResponse(collection))
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.vectors.DeleteCollection(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createEmbeddingsRequest struct {
	DocumentID string `json:"document_id"`
}

func (s *Server) handleCreateEmbeddings(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}

	var req createEmbeddingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	documentID, err := parseUUIDString(req.DocumentID)
	if err != nil {
		badRequest(w, err)
		return
	}

	doc, err := s.documents.GetDocument(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	content, err := s.documents.GetContent(r.Context(), doc.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	chunks, err := s.documents.GetChunks(r.Context(), doc, content)
	if err != nil {
		writeError(w, err)
		return
	}

	embedding, err := s.vectors.CreateEmbeddings(r.Context(), vector.CreateEmbeddingsParams{
		DocumentID: doc.ID, CollectionID: collectionID, Chunks: chunks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"document_id": embedding.DocumentID.String(), "collection_id": embedding.CollectionID.String(),
	})
}

func (s *Server) handleGetEmbeddings(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	documentID, ok := parseUUID(w, r, "documentId")
	if !ok {
		return
	}

	embedding, err := s.vectors.GetEmbeddings(r.Context(), documentID, collectionID)
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := s.vectors.CountEmbeddings(r.Context(), collectionID, documentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": embedding.DocumentID.String(), "collection_id": embedding.CollectionID.String(),
		"vector_count": count,
	})
}

func (s *Server) handleDeleteEmbeddings(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	documentID, ok := parseUUID(w, r, "documentId")
	if !ok {
		return
	}
	if err := s.vectors.DeleteEmbeddings(r.Context(), collectionID, documentID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEmbeddingModels(w http.ResponseWriter, r *http.Request) {
	provider := chiURLParamOrEmpty(r, "provider")
	models, err := s.vectors.ListEmbeddingModels(provider)
	if err != nil {
		writeError(w, err)
		return
	}
	payload := make([]embeddingModelResponse, len(models))
	for i, m := range models {
		payload[i] = embeddingModelResponse{Name: m.Name, Dimension: m.Dimension}
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": payload})
}

type embeddingModelResponse struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

type searchRequest struct {
	Query          string  `json:"query"`
	CollectionID   *string `json:"collection_id,omitempty"`
	CollectionName *string `json:"collection_name,omitempty"`
	Provider       *string `json:"provider,omitempty"`
	Limit          int     `json:"limit,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}

	params := vector.SearchParams{Query: req.Query, CollectionName: req.CollectionName, Provider: req.Provider, Limit: req.Limit}
	if req.CollectionID != nil {
		id, err := parseUUIDString(*req.CollectionID)
		if err != nil {
			badRequest(w, err)
			return
		}
		params.CollectionID = &id
	}

	results, err := s.vectors.Search(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
