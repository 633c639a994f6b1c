// Package vector implements VectorService: collection lifecycle, embedding
// creation, semantic search, and embedding-association bookkeeping on top of
// the metadata repository and the pluggable vector/embedder providers.
package vector

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/embedder"
	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/provider"
	"github.com/chonkit/chonkit/internal/repo/postgres"
	"github.com/chonkit/chonkit/internal/vectordb"
)

// DefaultCollectionName is seeded by CreateDefaultCollection on first
// startup, mirroring the bootstrap document's default name.
const DefaultCollectionName = "Default"

// CreateCollectionParams is the DTO for Service.CreateCollection.
type CreateCollectionParams struct {
	Name              string
	Model             string
	VectorProvider    string
	EmbeddingProvider string
}

// CreateEmbeddingsParams is the DTO for Service.CreateEmbeddings.
type CreateEmbeddingsParams struct {
	DocumentID   uuid.UUID
	CollectionID uuid.UUID
	Chunks       []string
}

// SearchParams is the DTO for Service.Search. Exactly one of CollectionID or
// (CollectionName, Provider) must be set; Limit defaults to 5 when zero.
type SearchParams struct {
	Query          string
	CollectionID   *uuid.UUID
	CollectionName *string
	Provider       *string
	Limit          int
}

func (p SearchParams) validate() error {
	if p.Query == "" {
		return chonkiterr.Validation("search query cannot be empty")
	}
	byID := p.CollectionID != nil
	byName := p.CollectionName != nil && p.Provider != nil
	if byID == byName {
		return chonkiterr.Validation("search must set exactly one of collection_id or (collection_name, provider)")
	}
	return nil
}

// Service implements the high-level vector/collection operations.
type Service struct {
	repo      postgres.Repository
	providers *provider.State
	logger    zerolog.Logger
}

// New builds a Service over repo, resolving vector backends and embedders
// through providers.
func New(repo postgres.Repository, providers *provider.State, logger zerolog.Logger) *Service {
	return &Service{repo: repo, providers: providers, logger: logger.With().Str("component", "vector_service").Logger()}
}

// ListCollections returns a paginated slice of collections without their
// document counts.
func (s *Service) ListCollections(ctx context.Context, p model.PaginationSort) (model.List[model.Collection], error) {
	displays, err := s.repo.ListCollections(ctx, p)
	if err != nil {
		return model.List[model.Collection]{}, err
	}
	items := make([]model.Collection, len(displays.Items))
	for i, d := range displays.Items {
		items[i] = d.Collection
	}
	return model.List[model.Collection]{Items: items, Total: displays.Total}, nil
}

// ListCollectionsDisplay returns a paginated slice of collections joined
// with their live embedded-document count.
func (s *Service) ListCollectionsDisplay(ctx context.Context, p model.PaginationSort) (model.List[model.CollectionDisplay], error) {
	return s.repo.ListCollections(ctx, p)
}

// GetCollection fetches a single collection by id.
func (s *Service) GetCollection(ctx context.Context, id uuid.UUID) (model.Collection, error) {
	return s.repo.GetCollection(ctx, id)
}

// GetCollectionDisplay fetches a single collection, joined with its live
// embedded-document count.
func (s *Service) GetCollectionDisplay(ctx context.Context, id uuid.UUID) (model.CollectionDisplay, error) {
	return s.repo.GetCollectionDisplay(ctx, id)
}

// GetCollectionByName fetches a collection by its (name, vector_provider)
// unique pair.
func (s *Service) GetCollectionByName(ctx context.Context, name, vectorProvider string) (model.Collection, error) {
	return s.repo.GetCollectionByName(ctx, name, vectorProvider)
}

// ListEmbeddingModels reports the models a named embedder supports, along
// with each model's vector dimension.
func (s *Service) ListEmbeddingModels(embedderProvider string) ([]embedder.Model, error) {
	e, err := s.providers.Embedder.Get(embedderProvider)
	if err != nil {
		return nil, err
	}
	return e.ListEmbeddingModels(), nil
}

// CreateDefaultCollection creates the default collection if it doesn't
// already exist, swallowing AlreadyExists. Used by bootstrap on startup.
func (s *Service) CreateDefaultCollection(ctx context.Context, vectorProvider, embedderProvider string) error {
	vdb, err := s.providers.VectorDb.Get(vectorProvider)
	if err != nil {
		return err
	}
	e, err := s.providers.Embedder.Get(embedderProvider)
	if err != nil {
		return err
	}

	def := e.DefaultModel()

	collection, err := s.repo.InsertCollection(ctx, model.NewCollectionInsert(DefaultCollectionName, def.Name, e.ID(), vdb.ID()))
	if chonkiterr.Is(err, chonkiterr.KindAlreadyExists) {
		s.logger.Info().Str("name", DefaultCollectionName).Msg("default collection already exists")
		return nil
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create default collection")
		return err
	}

	params := vectordb.CreateCollectionParams{
		ID: collection.ID, Name: DefaultCollectionName, Size: def.Dimension,
		EmbeddingProvider: e.ID(), EmbeddingModel: def.Name,
	}
	if err := vdb.CreateVectorCollection(ctx, params); err != nil {
		s.logger.Error().Err(err).Msg("failed to create default vector collection")
		return err
	}

	s.logger.Info().Str("name", DefaultCollectionName).Msg("created default collection")
	return nil
}

// CreateCollection validates params, resolves the embedding model's vector
// dimension, and in one transaction inserts the collection row and creates
// the backend collection at that dimension.
func (s *Service) CreateCollection(ctx context.Context, params CreateCollectionParams) (model.Collection, error) {
	if err := vectordb.ValidateCollectionName(params.Name); err != nil {
		return model.Collection{}, err
	}

	vdb, err := s.providers.VectorDb.Get(params.VectorProvider)
	if err != nil {
		return model.Collection{}, err
	}
	e, err := s.providers.Embedder.Get(params.EmbeddingProvider)
	if err != nil {
		return model.Collection{}, err
	}

	size, err := embedder.SizeOrErr(e, params.Model)
	if err != nil {
		return model.Collection{}, err
	}

	var collection model.Collection
	err = s.repo.Atomic(ctx, func(tx postgres.Repository) error {
		ins := model.NewCollectionInsert(params.Name, params.Model, e.ID(), vdb.ID())
		c, err := tx.InsertCollection(ctx, ins)
		if err != nil {
			return err
		}

		if err := vdb.CreateVectorCollection(ctx, vectordb.CreateCollectionParams{
			ID: c.ID, Name: params.Name, Size: size,
			EmbeddingProvider: params.EmbeddingProvider, EmbeddingModel: params.Model,
		}); err != nil {
			return err
		}

		collection = c
		return nil
	})
	if err != nil {
		return model.Collection{}, err
	}
	return collection, nil
}

// DeleteCollection drops the backend collection, then the metadata row
// (cascading to its embedding association rows).
func (s *Service) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	collection, err := s.repo.GetCollection(ctx, id)
	if err != nil {
		return err
	}

	vdb, err := s.providers.VectorDb.Get(collection.VectorProvider)
	if err != nil {
		return err
	}
	if err := vdb.DeleteVectorCollection(ctx, collection.Name); err != nil {
		return err
	}

	return s.repo.DeleteCollection(ctx, id)
}

// CreateEmbeddings embeds chunks and stores the vectors in the collection's
// backend, then records the document↔collection association. Fails
// AlreadyExists if the pair is already embedded, and InvalidEmbeddingModel if
// the embedder's model size doesn't match what the backend collection was
// created with.
func (s *Service) CreateEmbeddings(ctx context.Context, params CreateEmbeddingsParams) (model.Embedding, error) {
	collection, err := s.repo.GetCollection(ctx, params.CollectionID)
	if err != nil {
		return model.Embedding{}, err
	}

	if _, err := s.repo.GetEmbedding(ctx, params.DocumentID, collection.ID); err == nil {
		return model.Embedding{}, chonkiterr.AlreadyExists("embeddings for document %s in collection %q", params.DocumentID, collection.Name)
	} else if !chonkiterr.Is(err, chonkiterr.KindDoesNotExist) {
		return model.Embedding{}, err
	}

	vdb, err := s.providers.VectorDb.Get(collection.VectorProvider)
	if err != nil {
		return model.Embedding{}, err
	}
	e, err := s.providers.Embedder.Get(collection.EmbeddingProvider)
	if err != nil {
		return model.Embedding{}, err
	}

	backendInfo, err := vdb.GetCollection(ctx, collection.Name)
	if err != nil {
		return model.Embedding{}, err
	}

	size, err := embedder.SizeOrErr(e, collection.Model)
	if err != nil {
		return model.Embedding{}, err
	}
	if size != backendInfo.Size {
		return model.Embedding{}, chonkiterr.InvalidEmbeddingModel("model size (%d) not compatible with collection (%d)", size, backendInfo.Size)
	}

	vectors, err := e.Embed(ctx, params.Chunks, collection.Model)
	if err != nil {
		return model.Embedding{}, err
	}
	if len(vectors) != len(params.Chunks) {
		return model.Embedding{}, chonkiterr.Embedding("embedder returned %d vectors for %d chunks", len(vectors), len(params.Chunks))
	}

	if err := vdb.InsertEmbeddings(ctx, params.DocumentID, collection.Name, params.Chunks, vectors); err != nil {
		return model.Embedding{}, err
	}

	return s.repo.InsertEmbedding(ctx, model.NewEmbeddingInsert(params.DocumentID, collection.ID))
}

// Search resolves the target collection, embeds the query, and asks the
// backend for the nearest chunks.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]string, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	var collection model.Collection
	var err error
	if params.CollectionID != nil {
		collection, err = s.repo.GetCollection(ctx, *params.CollectionID)
	} else {
		collection, err = s.repo.GetCollectionByName(ctx, *params.CollectionName, *params.Provider)
	}
	if err != nil {
		return nil, err
	}

	vdb, err := s.providers.VectorDb.Get(collection.VectorProvider)
	if err != nil {
		return nil, err
	}
	e, err := s.providers.Embedder.Get(collection.EmbeddingProvider)
	if err != nil {
		return nil, err
	}

	vectors, err := e.Embed(ctx, []string{params.Query}, collection.Model)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, chonkiterr.Embedding("embedder returned no vector for search query")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 5
	}

	return vdb.Query(ctx, vectors[0], collection.Name, limit)
}

// GetEmbeddings fetches the association row for a (document, collection)
// pair.
func (s *Service) GetEmbeddings(ctx context.Context, documentID, collectionID uuid.UUID) (model.Embedding, error) {
	return s.repo.GetEmbedding(ctx, documentID, collectionID)
}

// DeleteEmbeddings drops a document's vectors from a collection's backend,
// then removes the association row.
func (s *Service) DeleteEmbeddings(ctx context.Context, collectionID, documentID uuid.UUID) error {
	collection, err := s.repo.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}

	vdb, err := s.providers.VectorDb.Get(collection.VectorProvider)
	if err != nil {
		return err
	}
	if err := vdb.DeleteEmbeddings(ctx, collection.Name, documentID); err != nil {
		return err
	}

	return s.repo.DeleteEmbedding(ctx, documentID, collectionID)
}

// CountEmbeddings forwards to the backend's vector count for a document
// within a collection.
func (s *Service) CountEmbeddings(ctx context.Context, collectionID, documentID uuid.UUID) (int, error) {
	collection, err := s.repo.GetCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	vdb, err := s.providers.VectorDb.Get(collection.VectorProvider)
	if err != nil {
		return 0, err
	}
	return vdb.CountVectors(ctx, collection.Name, documentID)
}
