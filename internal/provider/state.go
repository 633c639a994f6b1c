package provider

import (
	"github.com/chonkit/chonkit/internal/docstore"
	"github.com/chonkit/chonkit/internal/embedder"
	"github.com/chonkit/chonkit/internal/vectordb"
)

// State is the process-wide provider registry: one concretely-typed
// Factory per pluggable external contract, mirroring the original's
// ProviderState without erasing to `any` the way a single generic registry
// of interfaces would.
type State struct {
	VectorDb *Factory[vectordb.VectorDb]
	Embedder *Factory[embedder.Embedder]
	Document *Factory[docstore.DocumentStore]
}

// NewState builds an empty State with all three registries initialized.
func NewState() *State {
	return &State{
		VectorDb: NewFactory[vectordb.VectorDb]("vector backend"),
		Embedder: NewFactory[embedder.Embedder]("embedder"),
		Document: NewFactory[docstore.DocumentStore]("document store"),
	}
}
