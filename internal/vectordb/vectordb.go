// Package vectordb implements the VectorDb external contract: creating and
// deleting named vector collections, upserting/deleting/querying/counting
// vectors tagged with a document id.
package vectordb

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// collectionNamePattern mirrors spec.md §6.3's collection naming rule.
var collectionNamePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

// ValidateCollectionName checks a collection name against the naming rule
// every backend is expected to preserve verbatim.
func ValidateCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return chonkiterr.Validation("collection name %q must match ^[A-Z][A-Za-z0-9_]*$", name)
	}
	return nil
}

// CreateCollectionParams is the payload for creating a backend collection.
type CreateCollectionParams struct {
	ID                uuid.UUID
	Name              string
	Size              int
	EmbeddingProvider string
	EmbeddingModel    string
}

// CollectionInfo reports what the backend actually holds for a collection.
type CollectionInfo struct {
	Name string
	Size int
}

// VectorDb is the external contract the core consumes for vector storage.
// Each stored vector carries at least {content, document_id} as payload.
type VectorDb interface {
	ID() string
	ListVectorCollections(ctx context.Context) ([]string, error)
	CreateVectorCollection(ctx context.Context, params CreateCollectionParams) error
	GetCollection(ctx context.Context, name string) (CollectionInfo, error)
	DeleteVectorCollection(ctx context.Context, name string) error
	InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collectionName string, content []string, vectors [][]float64) error
	DeleteEmbeddings(ctx context.Context, collectionName string, documentID uuid.UUID) error
	Query(ctx context.Context, vector []float64, collectionName string, limit int) ([]string, error)
	CountVectors(ctx context.Context, collectionName string, documentID uuid.UUID) (int, error)
}
