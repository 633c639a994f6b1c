package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/chonkit/chonkit/internal/chunk"
	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/service/document"
)

// documentResponse is the wire shape for a model.Document.
type documentResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Ext       string   `json:"ext"`
	Hash      string   `json:"hash"`
	Src       string   `json:"src"`
	Label     *string  `json:"label,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func toDocumentResponse(d model.Document) documentResponse {
	return documentResponse{
		ID: d.ID.String(), Name: d.Name, Path: d.Path, Ext: d.Ext, Hash: d.Hash, Src: d.Src,
		Label: d.Label, Tags: d.Tags,
		CreatedAt: d.CreatedAt.Format(http.TimeFormat), UpdatedAt: d.UpdatedAt.Format(http.TimeFormat),
	}
}

type documentConfigResponse struct {
	Document documentResponse    `json:"document"`
	Chunk    *chunkConfigPayload `json:"chunk,omitempty"`
	Parse    *parseConfigPayload `json:"parse,omitempty"`
}

func toDocumentConfigResponse(c model.DocumentConfig) documentConfigResponse {
	resp := documentConfigResponse{Document: toDocumentResponse(c.Document)}
	if c.Chunk != nil {
		payload := toChunkConfigPayload(*c.Chunk)
		resp.Chunk = &payload
	}
	if c.Parse != nil {
		payload := toParseConfigPayload(*c.Parse)
		resp.Parse = &payload
	}
	return resp
}

// chunkConfigPayload is the JSON request/response shape for model.ChunkConfig:
// exactly one of Sliding/Snapping/Semantic is set, matching Kind.
type chunkConfigPayload struct {
	Kind     string                 `json:"kind"`
	Sliding  *slidingConfigPayload  `json:"sliding,omitempty"`
	Snapping *snappingConfigPayload `json:"snapping,omitempty"`
	Semantic *semanticConfigPayload `json:"semantic,omitempty"`
}

type slidingConfigPayload struct {
	Size    int `json:"size"`
	Overlap int `json:"overlap"`
}

type snappingConfigPayload struct {
	Size        int      `json:"size"`
	Overlap     int      `json:"overlap"`
	Delimiter   string   `json:"delimiter"`
	SkipForward []string `json:"skip_forward,omitempty"`
	SkipBack    []string `json:"skip_back,omitempty"`
}

type semanticConfigPayload struct {
	Size              int      `json:"size"`
	Threshold         float64  `json:"threshold"`
	DistanceFn        string   `json:"distance_fn"`
	Delimiter         string   `json:"delimiter"`
	SkipForward       []string `json:"skip_forward,omitempty"`
	SkipBack          []string `json:"skip_back,omitempty"`
	EmbeddingProvider string   `json:"embedding_provider"`
	EmbeddingModel    string   `json:"embedding_model"`
}

func toChunkConfigPayload(c model.ChunkConfig) chunkConfigPayload {
	payload := chunkConfigPayload{Kind: string(c.Kind)}
	switch c.Kind {
	case chunk.KindSliding:
		if c.Sliding != nil {
			payload.Sliding = &slidingConfigPayload{Size: c.Sliding.Size, Overlap: c.Sliding.Overlap}
		}
	case chunk.KindSnapping:
		if c.Snapping != nil {
			payload.Snapping = &snappingConfigPayload{
				Size: c.Snapping.Size, Overlap: c.Snapping.Overlap, Delimiter: string(c.Snapping.Delimiter),
				SkipForward: c.Snapping.SkipForward, SkipBack: c.Snapping.SkipBack,
			}
		}
	case chunk.KindSemantic:
		if c.Semantic != nil {
			payload.Semantic = &semanticConfigPayload{
				Size: c.Semantic.Size, Threshold: c.Semantic.Threshold,
				DistanceFn: string(c.Semantic.DistanceFn.Kind), Delimiter: string(c.Semantic.Delimiter),
				SkipForward: c.Semantic.SkipForward, SkipBack: c.Semantic.SkipBack,
				EmbeddingProvider: c.Semantic.EmbeddingProvider, EmbeddingModel: c.Semantic.EmbeddingModel,
			}
		}
	}
	return payload
}

func (p chunkConfigPayload) toModel() (model.ChunkConfig, error) {
	delim := func(s string) rune {
		for _, r := range s {
			return r
		}
		return '.'
	}

	switch chunk.Kind(p.Kind) {
	case chunk.KindSliding:
		if p.Sliding == nil {
			return model.ChunkConfig{}, fmt.Errorf("missing sliding config")
		}
		return model.NewSlidingChunkConfig(p.Sliding.Size, p.Sliding.Overlap)
	case chunk.KindSnapping:
		if p.Snapping == nil {
			return model.ChunkConfig{}, fmt.Errorf("missing snapping config")
		}
		return model.NewSnappingChunkConfig(p.Snapping.Size, p.Snapping.Overlap, p.Snapping.SkipForward, p.Snapping.SkipBack)
	case chunk.KindSemantic:
		if p.Semantic == nil {
			return model.ChunkConfig{}, fmt.Errorf("missing semantic config")
		}
		return model.NewSemanticChunkConfig(
			p.Semantic.Size, p.Semantic.Threshold, delim(p.Semantic.Delimiter),
			chunk.DistanceFn{Kind: chunk.DistanceKind(p.Semantic.DistanceFn)},
			p.Semantic.EmbeddingProvider, p.Semantic.EmbeddingModel,
			p.Semantic.SkipForward, p.Semantic.SkipBack,
		), nil
	default:
		return model.ChunkConfig{}, fmt.Errorf("unknown chunk config kind %q", p.Kind)
	}
}

type parseConfigPayload struct {
	Start   int      `json:"start"`
	End     int      `json:"end"`
	Range   bool     `json:"range"`
	Filters []string `json:"filters,omitempty"`
}

func toParseConfigPayload(c model.ParseConfig) parseConfigPayload {
	return parseConfigPayload{Start: c.Start, End: c.End, Range: c.Range, Filters: c.Filters}
}

func (p parseConfigPayload) toModel() model.ParseConfig {
	return model.ParseConfig{Start: p.Start, End: p.End, Range: p.Range, Filters: p.Filters}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.documents.ListDocuments(r.Context(), parsePaginationSort(r), r.URL.Query().Get("src"))
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]documentResponse, len(list.Items))
	for i, d := range list.Items {
		items[i] = toDocumentResponse(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": items, "total": list.Total})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) handleGetDocumentConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	cfg, err := s.documents.GetConfig(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentConfigResponse(cfg))
}

func (s *Server) handleGetDocumentContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	content, err := s.documents.GetContent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleGetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	content, err := s.documents.GetContent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	chunks, err := s.documents.GetChunks(r.Context(), doc, content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		badRequest(w, fmt.Errorf("parse form: %w", err))
		return
	}

	storageProvider := r.FormValue("src")
	if storageProvider == "" {
		badRequest(w, fmt.Errorf("missing src form field"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, fmt.Errorf("read file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	ext := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	cfg, err := s.documents.Upload(r.Context(), storageProvider, document.UploadParams{
		Name: header.Filename, Ext: ext, File: data,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDocumentConfigResponse(cfg))
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.documents.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncDocuments(w http.ResponseWriter, r *http.Request) {
	storageProvider := r.URL.Query().Get("src")
	if storageProvider == "" {
		badRequest(w, fmt.Errorf("missing src query parameter"))
		return
	}
	if err := s.documents.Sync(r.Context(), storageProvider); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func (s *Server) handleUpdateParser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var payload parseConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.documents.UpdateParser(r.Context(), id, payload.toModel()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleUpdateChunker(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var payload chunkConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	cfg, err := payload.toModel()
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := s.documents.UpdateChunker(r.Context(), id, cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleParsePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var payload parseConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	content, err := s.documents.ParsePreview(r.Context(), id, payload.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

type chunkPreviewRequest struct {
	Parser  *parseConfigPayload `json:"parser,omitempty"`
	Chunker chunkConfigPayload  `json:"chunker"`
}

func (s *Server) handleChunkPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	var payload chunkPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	chunkerCfg, err := payload.Chunker.toModel()
	if err != nil {
		badRequest(w, err)
		return
	}

	params := document.ChunkPreviewParams{Chunker: chunkerCfg}
	if payload.Parser != nil {
		parseCfg := payload.Parser.toModel()
		params.Parser = &parseCfg
	}

	chunks, err := s.documents.ChunkPreview(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}
