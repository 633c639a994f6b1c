package bootstrap

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/docstore"
	"github.com/chonkit/chonkit/internal/embedder"
	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/provider"
	"github.com/chonkit/chonkit/internal/repo/postgres"
	"github.com/chonkit/chonkit/internal/service/document"
	"github.com/chonkit/chonkit/internal/service/vector"
	"github.com/chonkit/chonkit/internal/vectordb"
)

type fakeRepo struct {
	mu          sync.Mutex
	documents   map[uuid.UUID]model.Document
	parseCfgs   map[uuid.UUID]model.ParseConfig
	chunkCfgs   map[uuid.UUID]model.ChunkConfig
	collections map[uuid.UUID]model.Collection
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		documents:   make(map[uuid.UUID]model.Document),
		parseCfgs:   make(map[uuid.UUID]model.ParseConfig),
		chunkCfgs:   make(map[uuid.UUID]model.ChunkConfig),
		collections: make(map[uuid.UUID]model.Collection),
	}
}

func (r *fakeRepo) Atomic(ctx context.Context, fn func(tx postgres.Repository) error) error {
	return fn(r)
}

func (r *fakeRepo) InsertDocument(ctx context.Context, ins model.Insert, parse model.ParseConfig, chunk model.ChunkConfig) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.documents {
		if d.Hash == ins.Hash {
			return model.Document{}, chonkiterr.AlreadyExists("document with hash %q", ins.Hash)
		}
	}
	doc := model.Document{ID: ins.ID, Name: ins.Name, Path: ins.Path, Ext: ins.Ext.String(), Hash: ins.Hash, Src: ins.Src}
	r.documents[doc.ID] = doc
	r.parseCfgs[doc.ID] = parse
	r.chunkCfgs[doc.ID] = chunk
	return doc, nil
}

func (r *fakeRepo) GetDocument(ctx context.Context, id uuid.UUID) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return model.Document{}, chonkiterr.DoesNotExist("document with ID %s", id)
	}
	return doc, nil
}

func (r *fakeRepo) GetDocumentByHash(ctx context.Context, hash string) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.documents {
		if d.Hash == hash {
			return d, nil
		}
	}
	return model.Document{}, chonkiterr.DoesNotExist("document with hash %q", hash)
}

func (r *fakeRepo) GetDocumentByPath(ctx context.Context, path, src string) (model.Document, error) {
	return model.Document{}, chonkiterr.DoesNotExist("document with path %q", path)
}

func (r *fakeRepo) ListDocuments(ctx context.Context, p model.PaginationSort, src string) (model.List[model.Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []model.Document
	for _, d := range r.documents {
		if src == "" || d.Src == src {
			items = append(items, d)
		}
	}
	return model.List[model.Document]{Items: items, Total: len(items)}, nil
}

func (r *fakeRepo) ListDocumentPaths(ctx context.Context, src string) (map[uuid.UUID]string, error) {
	return nil, nil
}

func (r *fakeRepo) UpdateDocument(ctx context.Context, id uuid.UUID, upd model.Update) (model.Document, error) {
	return model.Document{}, chonkiterr.DoesNotExist("document with ID %s", id)
}

func (r *fakeRepo) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.documents, id)
	return nil
}

func (r *fakeRepo) GetDocumentConfig(ctx context.Context, id uuid.UUID) (model.DocumentConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return model.DocumentConfig{}, chonkiterr.DoesNotExist("document with ID %s", id)
	}
	cfg := model.DocumentConfig{Document: doc}
	if pc, ok := r.parseCfgs[id]; ok {
		cfg.Parse = &pc
	}
	if cc, ok := r.chunkCfgs[id]; ok {
		cfg.Chunk = &cc
	}
	return cfg, nil
}

func (r *fakeRepo) UpsertParseConfig(ctx context.Context, documentID uuid.UUID, cfg model.ParseConfig) error {
	return nil
}

func (r *fakeRepo) UpsertChunkConfig(ctx context.Context, documentID uuid.UUID, cfg model.ChunkConfig) error {
	return nil
}

func (r *fakeRepo) InsertCollection(ctx context.Context, ins model.CollectionInsert) (model.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.collections {
		if c.Name == ins.Name && c.VectorProvider == ins.VectorProvider {
			return model.Collection{}, chonkiterr.AlreadyExists("collection %q", ins.Name)
		}
	}
	c := model.Collection{ID: ins.ID, Name: ins.Name, Model: ins.Model, EmbeddingProvider: ins.EmbeddingProvider, VectorProvider: ins.VectorProvider}
	r.collections[c.ID] = c
	return c, nil
}

func (r *fakeRepo) GetCollection(ctx context.Context, id uuid.UUID) (model.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.collections[id]
	if !ok {
		return model.Collection{}, chonkiterr.DoesNotExist("collection with ID %s", id)
	}
	return c, nil
}

func (r *fakeRepo) GetCollectionByName(ctx context.Context, name, vectorProvider string) (model.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.collections {
		if c.Name == name && c.VectorProvider == vectorProvider {
			return c, nil
		}
	}
	return model.Collection{}, chonkiterr.DoesNotExist("collection %q", name)
}

func (r *fakeRepo) GetCollectionDisplay(ctx context.Context, id uuid.UUID) (model.CollectionDisplay, error) {
	c, err := r.GetCollection(ctx, id)
	if err != nil {
		return model.CollectionDisplay{}, err
	}
	return model.CollectionDisplay{Collection: c}, nil
}

func (r *fakeRepo) ListCollections(ctx context.Context, p model.PaginationSort) (model.List[model.CollectionDisplay], error) {
	return model.List[model.CollectionDisplay]{}, nil
}

func (r *fakeRepo) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.collections, id)
	return nil
}

func (r *fakeRepo) InsertEmbedding(ctx context.Context, ins model.EmbeddingInsert) (model.Embedding, error) {
	return model.Embedding{}, nil
}

func (r *fakeRepo) GetEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) (model.Embedding, error) {
	return model.Embedding{}, chonkiterr.DoesNotExist("embedding")
}

func (r *fakeRepo) ListEmbeddingCollections(ctx context.Context, documentID uuid.UUID) ([]postgres.EmbeddingCollection, error) {
	return nil, nil
}

func (r *fakeRepo) DeleteEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) error {
	return nil
}

type fakeVectorDb struct{ collections map[string]vectordb.CollectionInfo }

func newFakeVectorDb() *fakeVectorDb { return &fakeVectorDb{collections: make(map[string]vectordb.CollectionInfo)} }

func (f *fakeVectorDb) ID() string                                                  { return "fake-vector" }
func (f *fakeVectorDb) ListVectorCollections(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeVectorDb) CreateVectorCollection(ctx context.Context, params vectordb.CreateCollectionParams) error {
	f.collections[params.Name] = vectordb.CollectionInfo{Name: params.Name, Size: params.Size}
	return nil
}
func (f *fakeVectorDb) GetCollection(ctx context.Context, name string) (vectordb.CollectionInfo, error) {
	info, ok := f.collections[name]
	if !ok {
		return vectordb.CollectionInfo{}, chonkiterr.DoesNotExist("vector collection %q", name)
	}
	return info, nil
}
func (f *fakeVectorDb) DeleteVectorCollection(ctx context.Context, name string) error { return nil }
func (f *fakeVectorDb) InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collectionName string, content []string, vectors [][]float64) error {
	return nil
}
func (f *fakeVectorDb) DeleteEmbeddings(ctx context.Context, collectionName string, documentID uuid.UUID) error {
	return nil
}
func (f *fakeVectorDb) Query(ctx context.Context, vector []float64, collectionName string, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeVectorDb) CountVectors(ctx context.Context, collectionName string, documentID uuid.UUID) (int, error) {
	return 0, nil
}

type fakeEmbedder struct{}

func (f *fakeEmbedder) ID() string                  { return "fake-embedder" }
func (f *fakeEmbedder) DefaultModel() embedder.Model { return embedder.Model{Name: "default", Dimension: 4} }
func (f *fakeEmbedder) ListEmbeddingModels() []embedder.Model {
	return []embedder.Model{{Name: "default", Dimension: 4}}
}
func (f *fakeEmbedder) Size(model string) (int, bool) { return 4, true }
func (f *fakeEmbedder) Embed(ctx context.Context, content []string, model string) ([][]float64, error) {
	vectors := make([][]float64, len(content))
	for i := range content {
		vectors[i] = []float64{float64(i)}
	}
	return vectors, nil
}

func newTestServices(t *testing.T) (*document.Service, *vector.Service) {
	t.Helper()
	repo := newFakeRepo()
	store, err := docstore.NewFilesystem("fs", t.TempDir())
	require.NoError(t, err)

	providers := provider.NewState()
	providers.Document.Register("fs", store)
	providers.VectorDb.Register("fake-vector", newFakeVectorDb())
	providers.Embedder.Register("fake-embedder", &fakeEmbedder{})

	return document.New(repo, providers, zerolog.Nop()), vector.New(repo, providers, zerolog.Nop())
}

func TestSeedCreatesDefaultCollectionAndWelcomeDocument(t *testing.T) {
	docs, vecs := newTestServices(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, docs, vecs, "fs", "fake-vector", "fake-embedder", zerolog.Nop()))

	collection, err := vecs.GetCollectionByName(ctx, vector.DefaultCollectionName, "fake-vector")
	require.NoError(t, err)
	require.Equal(t, vector.DefaultCollectionName, collection.Name)

	list, err := docs.ListDocuments(ctx, model.PaginationSort{}, "")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, welcomeDocumentName, list.Items[0].Name)
}

func TestSeedIsIdempotent(t *testing.T) {
	docs, vecs := newTestServices(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, docs, vecs, "fs", "fake-vector", "fake-embedder", zerolog.Nop()))
	require.NoError(t, Seed(ctx, docs, vecs, "fs", "fake-vector", "fake-embedder", zerolog.Nop()))

	list, err := docs.ListDocuments(ctx, model.PaginationSort{}, "")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
}

func TestSeedSkipsWelcomeDocumentWhenDocumentsExist(t *testing.T) {
	docs, vecs := newTestServices(t)
	ctx := context.Background()

	_, err := docs.Upload(ctx, "fs", document.UploadParams{Name: "mine.txt", Ext: "txt", File: []byte("already here")})
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, docs, vecs, "fs", "fake-vector", "fake-embedder", zerolog.Nop()))

	list, err := docs.ListDocuments(ctx, model.PaginationSort{}, "")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, "mine.txt", list.Items[0].Name)
}
