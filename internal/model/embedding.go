package model

import (
	"time"

	"github.com/google/uuid"
)

// Embedding is the association row recording that a document has vectors
// living in a collection. It exists for exactly the lifetime of those
// vectors in the backend. (DocumentID, CollectionID) is unique.
type Embedding struct {
	ID           uuid.UUID
	DocumentID   uuid.UUID
	CollectionID uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmbeddingInsert is the DTO for recording a new association row.
type EmbeddingInsert struct {
	ID           uuid.UUID
	DocumentID   uuid.UUID
	CollectionID uuid.UUID
}

// NewEmbeddingInsert builds an EmbeddingInsert with a freshly generated id.
func NewEmbeddingInsert(documentID, collectionID uuid.UUID) EmbeddingInsert {
	return EmbeddingInsert{ID: uuid.New(), DocumentID: documentID, CollectionID: collectionID}
}
