// Package postgres implements the metadata repository external contract
// (spec.md §6.1/§6.2) on top of Postgres: documents, their 1:1 parse/chunk
// configs, collections, and the document↔collection embedding association,
// plus the transaction boundary every multi-step core operation commits
// through.
package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/chonkit/chonkit/internal/model"
)

// EmbeddingCollection is the read model DocumentService.delete uses to find
// every (collection name, vector provider) pair a document is embedded
// into, so it can instruct each matching vector backend to drop the
// document's vectors in the same transaction that removes its metadata row.
type EmbeddingCollection struct {
	CollectionID   uuid.UUID
	CollectionName string
	VectorProvider string
}

// Repository is the metadata repository external contract: CRUD for
// documents, collections, embedding associations, and parse/chunk configs,
// plus a transaction boundary (Atomic) in place of the Rust
// start_tx/commit_tx/abort_tx trio — Go's defer/rollback idiom makes the
// closure form more natural than exposing begin/commit/abort individually.
type Repository interface {
	// Atomic runs fn within a single transaction, committing on a nil
	// return and rolling back otherwise. fn receives a Repository bound to
	// that transaction; nested Atomic calls are not supported.
	Atomic(ctx context.Context, fn func(tx Repository) error) error

	InsertDocument(ctx context.Context, ins model.Insert, parse model.ParseConfig, chunk model.ChunkConfig) (model.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (model.Document, error)
	GetDocumentByHash(ctx context.Context, hash string) (model.Document, error)
	GetDocumentByPath(ctx context.Context, path, src string) (model.Document, error)
	ListDocuments(ctx context.Context, p model.PaginationSort, src string) (model.List[model.Document], error)
	ListDocumentPaths(ctx context.Context, src string) (map[uuid.UUID]string, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, upd model.Update) (model.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	GetDocumentConfig(ctx context.Context, id uuid.UUID) (model.DocumentConfig, error)
	UpsertParseConfig(ctx context.Context, documentID uuid.UUID, cfg model.ParseConfig) error
	UpsertChunkConfig(ctx context.Context, documentID uuid.UUID, cfg model.ChunkConfig) error

	InsertCollection(ctx context.Context, ins model.CollectionInsert) (model.Collection, error)
	GetCollection(ctx context.Context, id uuid.UUID) (model.Collection, error)
	GetCollectionByName(ctx context.Context, name, vectorProvider string) (model.Collection, error)
	GetCollectionDisplay(ctx context.Context, id uuid.UUID) (model.CollectionDisplay, error)
	ListCollections(ctx context.Context, p model.PaginationSort) (model.List[model.CollectionDisplay], error)
	DeleteCollection(ctx context.Context, id uuid.UUID) error

	InsertEmbedding(ctx context.Context, ins model.EmbeddingInsert) (model.Embedding, error)
	GetEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) (model.Embedding, error)
	ListEmbeddingCollections(ctx context.Context, documentID uuid.UUID) ([]EmbeddingCollection, error)
	DeleteEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) error
}
