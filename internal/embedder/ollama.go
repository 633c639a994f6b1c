package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// Ollama is a thin JSON-over-HTTP client for a local/remote Ollama-style
// embedding endpoint, standing in for the fastembed and OpenAI providers
// spec.md §1 treats as external collaborators. Concrete embedding providers
// carry no third-party SDK in this pack, so the shape mirrors the teacher's
// own hand-rolled Ollama client rather than inventing a fake dependency.
type Ollama struct {
	id     string
	host   string
	models []Model
	client *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllama constructs an Embedder backed by an Ollama-compatible
// /api/embeddings endpoint. models must be non-empty; the first entry is
// treated as the default model.
func NewOllama(id, host string, models []Model, timeout time.Duration) *Ollama {
	return &Ollama{
		id:     id,
		host:   strings.TrimRight(host, "/"),
		models: models,
		client: &http.Client{Timeout: timeout},
	}
}

func (o *Ollama) ID() string { return o.id }

func (o *Ollama) DefaultModel() Model {
	if len(o.models) == 0 {
		return Model{}
	}
	return o.models[0]
}

func (o *Ollama) ListEmbeddingModels() []Model {
	out := make([]Model, len(o.models))
	copy(out, o.models)
	return out
}

func (o *Ollama) Size(model string) (int, bool) {
	for _, m := range o.models {
		if m.Name == model {
			return m.Dimension, true
		}
	}
	return 0, false
}

func (o *Ollama) Embed(ctx context.Context, content []string, model string) ([][]float64, error) {
	dimension, ok := o.Size(model)
	if !ok {
		return nil, chonkiterr.InvalidEmbeddingModel("%q is not a known model for embedder %q", model, o.id)
	}

	url := fmt.Sprintf("%s/api/embeddings", o.host)
	out := make([][]float64, 0, len(content))

	for _, text := range content {
		body, err := json.Marshal(ollamaRequest{Model: model, Prompt: text})
		if err != nil {
			return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "marshal embedding request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "create embedding request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "call embedding endpoint")
		}

		var payload ollamaResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, chonkiterr.Wrap(chonkiterr.KindInfra, decodeErr, "decode embedding response")
		}

		if len(payload.Embedding) != dimension {
			return nil, chonkiterr.Embedding("embedding dimension mismatch for model %q: expected %d, got %d", model, dimension, len(payload.Embedding))
		}

		out = append(out, payload.Embedding)
	}

	return out, nil
}
