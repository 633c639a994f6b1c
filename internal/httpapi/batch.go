package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/chonkit/chonkit/internal/model"
)

type batchJobRequest struct {
	CollectionID string   `json:"collection_id"`
	Add          []string `json:"add,omitempty"`
	Remove       []string `json:"remove,omitempty"`
}

// jobEventPayload is the newline-delimited JSON shape streamed back to the
// caller for each processed item, one object per line.
type jobEventPayload struct {
	Kind         string `json:"kind"`
	DocumentID   string `json:"document_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
	EmbeddingID  string `json:"embedding_id,omitempty"`
	ModelUsed    string `json:"model_used,omitempty"`
	VectorDb     string `json:"vector_db,omitempty"`
	TotalChunks  int    `json:"total_chunks,omitempty"`
	Error        string `json:"error,omitempty"`
}

func toJobEventPayload(event model.JobEvent) jobEventPayload {
	switch event.Kind {
	case model.JobEventAddition:
		a := event.Addition
		return jobEventPayload{
			Kind: "addition", DocumentID: a.DocumentID.String(), CollectionID: a.CollectionID.String(),
			EmbeddingID: a.EmbeddingID.String(), ModelUsed: a.ModelUsed, VectorDb: a.VectorDb, TotalChunks: a.TotalChunks,
		}
	case model.JobEventRemoval:
		rm := event.Removal
		return jobEventPayload{Kind: "removal", DocumentID: rm.DocumentID.String(), CollectionID: rm.CollectionID.String()}
	case model.JobEventError:
		return jobEventPayload{Kind: "error", Error: event.Err.Error()}
	default:
		return jobEventPayload{Kind: "done"}
	}
}

// handleSubmitBatch submits an add/remove batch job to the embedder and
// streams one newline-delimited JSON object per processed item as the
// embedder's job goroutine reports it, closing the response once the job's
// Done sentinel arrives or the client disconnects.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req batchJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}

	collectionID, err := parseUUIDString(req.CollectionID)
	if err != nil {
		badRequest(w, err)
		return
	}
	add, err := parseUUIDStrings(req.Add)
	if err != nil {
		badRequest(w, err)
		return
	}
	remove, err := parseUUIDStrings(req.Remove)
	if err != nil {
		badRequest(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported by response writer"))
		return
	}

	cancel := make(chan struct{})
	defer close(cancel)

	results := make(chan model.JobEvent, len(add)+len(remove)+1)
	job := model.BatchJob{CollectionID: collectionID, Add: add, Remove: remove, Results: results, Cancel: cancel}

	if err := s.batch.Submit(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(w)
	for {
		select {
		case event, ok := <-results:
			if !ok {
				return
			}
			if err := encoder.Encode(toJobEventPayload(event)); err != nil {
				return
			}
			flusher.Flush()
			if event.Kind == model.JobEventDone {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func parseUUIDStrings(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := parseUUIDString(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
