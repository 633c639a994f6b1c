package model

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a named, typed bucket of vectors: a metadata row recording
// which embedder/model produced the vectors and which vector backend holds
// them. (name, VectorProvider) is unique.
type Collection struct {
	ID                uuid.UUID
	Name              string
	Model             string
	EmbeddingProvider string
	VectorProvider    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CollectionShort is a minimal projection used in aggregate views.
type CollectionShort struct {
	ID   uuid.UUID
	Name string
}

// CollectionDisplay joins a Collection with the number of documents
// currently embedded into it, the read model used by list endpoints.
type CollectionDisplay struct {
	Collection    Collection
	DocumentCount int
}

// CollectionInsert is the DTO for creating a collection row.
type CollectionInsert struct {
	ID                uuid.UUID
	Name              string
	Model             string
	EmbeddingProvider string
	VectorProvider    string
}

// NewCollectionInsert builds a CollectionInsert with a freshly generated id.
func NewCollectionInsert(name, model, embeddingProvider, vectorProvider string) CollectionInsert {
	return CollectionInsert{
		ID:                uuid.New(),
		Name:              name,
		Model:             model,
		EmbeddingProvider: embeddingProvider,
		VectorProvider:    vectorProvider,
	}
}
