// Package embedder implements the Embedder external contract: given texts
// and a model name, return one float64 vector per text; also exposes model
// listing, a default model, and per-model vector dimension.
package embedder

import (
	"context"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// Model describes one embedding model a provider exposes.
type Model struct {
	Name      string
	Dimension int
}

// Embedder is the external contract DocumentService/VectorService/the
// semantic chunker consume. It also satisfies chunk.Embedder, so a
// provider's Embedder can be passed directly to chunk.Semantic.Chunk.
type Embedder interface {
	ID() string
	DefaultModel() Model
	ListEmbeddingModels() []Model
	Size(model string) (int, bool)
	Embed(ctx context.Context, content []string, model string) ([][]float64, error)
}

// SizeOrErr looks up a model's dimension, translating "unknown model" into
// the InvalidEmbeddingModel error kind the services need to return.
func SizeOrErr(e Embedder, model string) (int, error) {
	size, ok := e.Size(model)
	if !ok {
		return 0, chonkiterr.InvalidEmbeddingModel("%q is not a known model for embedder %q", model, e.ID())
	}
	return size, nil
}
