package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/chonkit/chonkit/internal/batch"
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

// fakeRepo is a full in-memory postgres.Repository covering documents,
// collections, and embeddings, shared by every test in this package.
type fakeRepo struct {
	mu          sync.Mutex
	documents   map[uuid.UUID]model.Document
	parseCfgs   map[uuid.UUID]model.ParseConfig
	chunkCfgs   map[uuid.UUID]model.ChunkConfig
	collections map[uuid.UUID]model.Collection
	embeddings  map[[2]uuid.UUID]model.Embedding
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		documents:   make(map[uuid.UUID]model.Document),
		parseCfgs:   make(map[uuid.UUID]model.ParseConfig),
		chunkCfgs:   make(map[uuid.UUID]model.ChunkConfig),
		collections: make(map[uuid.UUID]model.Collection),
		embeddings:  make(map[[2]uuid.UUID]model.Embedding),
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
	doc := model.Document{ID: ins.ID, Name: ins.Name, Path: ins.Path, Ext: ins.Ext.String(), Hash: ins.Hash, Src: ins.Src, Label: ins.Label, Tags: ins.Tags}
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
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.documents {
		if d.Path == path && d.Src == src {
			return d, nil
		}
	}
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
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make(map[uuid.UUID]string)
	for id, d := range r.documents {
		if src == "" || d.Src == src {
			paths[id] = d.Path
		}
	}
	return paths, nil
}

func (r *fakeRepo) UpdateDocument(ctx context.Context, id uuid.UUID, upd model.Update) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return model.Document{}, chonkiterr.DoesNotExist("document with ID %s", id)
	}
	return doc, nil
}

func (r *fakeRepo) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[id]; !ok {
		return chonkiterr.DoesNotExist("document with ID %s", id)
	}
	delete(r.documents, id)
	delete(r.parseCfgs, id)
	delete(r.chunkCfgs, id)
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
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parseCfgs[documentID] = cfg
	return nil
}

func (r *fakeRepo) UpsertChunkConfig(ctx context.Context, documentID uuid.UUID, cfg model.ChunkConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunkCfgs[documentID] = cfg
	return nil
}

func (r *fakeRepo) InsertCollection(ctx context.Context, ins model.CollectionInsert) (model.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []model.CollectionDisplay
	for _, c := range r.collections {
		items = append(items, model.CollectionDisplay{Collection: c})
	}
	return model.List[model.CollectionDisplay]{Items: items, Total: len(items)}, nil
}

func (r *fakeRepo) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.collections, id)
	return nil
}

func (r *fakeRepo) InsertEmbedding(ctx context.Context, ins model.EmbeddingInsert) (model.Embedding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := model.Embedding{ID: ins.ID, DocumentID: ins.DocumentID, CollectionID: ins.CollectionID}
	r.embeddings[[2]uuid.UUID{ins.DocumentID, ins.CollectionID}] = e
	return e, nil
}

func (r *fakeRepo) GetEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) (model.Embedding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.embeddings[[2]uuid.UUID{documentID, collectionID}]
	if !ok {
		return model.Embedding{}, chonkiterr.DoesNotExist("embedding")
	}
	return e, nil
}

func (r *fakeRepo) ListEmbeddingCollections(ctx context.Context, documentID uuid.UUID) ([]postgres.EmbeddingCollection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []postgres.EmbeddingCollection
	for key, e := range r.embeddings {
		if key[0] == documentID {
			c := r.collections[e.CollectionID]
			out = append(out, postgres.EmbeddingCollection{CollectionID: c.ID, CollectionName: c.Name, VectorProvider: c.VectorProvider})
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.embeddings, [2]uuid.UUID{documentID, collectionID})
	return nil
}

type fakeVectorDb struct {
	mu          sync.Mutex
	collections map[string]vectordb.CollectionInfo
	inserted    map[string][]string
}

func newFakeVectorDb() *fakeVectorDb {
	return &fakeVectorDb{collections: make(map[string]vectordb.CollectionInfo), inserted: make(map[string][]string)}
}

func (f *fakeVectorDb) ID() string { return "fake-vector" }
func (f *fakeVectorDb) ListVectorCollections(ctx context.Context) ([]string, error) {
	return nil, nil
}
func (f *fakeVectorDb) CreateVectorCollection(ctx context.Context, params vectordb.CreateCollectionParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[params.Name] = vectordb.CollectionInfo{Name: params.Name, Size: params.Size}
	return nil
}
func (f *fakeVectorDb) GetCollection(ctx context.Context, name string) (vectordb.CollectionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.collections[name]
	if !ok {
		return vectordb.CollectionInfo{}, chonkiterr.DoesNotExist("vector collection %q", name)
	}
	return info, nil
}
func (f *fakeVectorDb) DeleteVectorCollection(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections, name)
	return nil
}
func (f *fakeVectorDb) InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collectionName string, content []string, vectors [][]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted[collectionName] = append(f.inserted[collectionName], content...)
	return nil
}
func (f *fakeVectorDb) DeleteEmbeddings(ctx context.Context, collectionName string, documentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return nil
}
func (f *fakeVectorDb) Query(ctx context.Context, vector []float64, collectionName string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content := f.inserted[collectionName]
	if limit < len(content) {
		content = content[:limit]
	}
	return content, nil
}
func (f *fakeVectorDb) CountVectors(ctx context.Context, collectionName string, documentID uuid.UUID) (int, error) {
	return len(f.inserted[collectionName]), nil
}

type fakeEmbedder struct{ dimension int }

func (f *fakeEmbedder) ID() string                  { return "fake-embedder" }
func (f *fakeEmbedder) DefaultModel() embedder.Model { return embedder.Model{Name: "default", Dimension: f.dimension} }
func (f *fakeEmbedder) ListEmbeddingModels() []embedder.Model {
	return []embedder.Model{{Name: "default", Dimension: f.dimension}}
}
func (f *fakeEmbedder) Size(model string) (int, bool) { return f.dimension, true }
func (f *fakeEmbedder) Embed(ctx context.Context, content []string, model string) ([][]float64, error) {
	vectors := make([][]float64, len(content))
	for i := range content {
		vectors[i] = []float64{float64(i)}
	}
	return vectors, nil
}

// newTestServer wires a Server over fresh in-memory fakes and starts the
// batch embedder's dispatch loop for the duration of the test.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo := newFakeRepo()
	store, err := docstore.NewFilesystem("fs", t.TempDir())
	require.NoError(t, err)

	providers := provider.NewState()
	providers.Document.Register("fs", store)
	providers.VectorDb.Register("fake-vector", newFakeVectorDb())
	providers.Embedder.Register("fake-embedder", &fakeEmbedder{dimension: 1})

	docs := document.New(repo, providers, zerolog.Nop())
	vecs := vector.New(repo, providers, zerolog.Nop())
	emb := batch.New(docs, vecs, 16, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go emb.Run(ctx)

	return New(docs, vecs, emb, nil, zerolog.Nop())
}

func uploadDocument(t *testing.T, srv *Server, name, content string) documentConfigResponse {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("src", "fs"))
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp documentConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadAndGetDocument(t *testing.T) {
	srv := newTestServer(t)
	uploaded := uploadDocument(t, srv, "hello.txt", "hello there. general kenobi.")
	require.Equal(t, "hello.txt", uploaded.Document.Name)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+uploaded.Document.ID, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc documentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, "hello.txt", doc.Name)
}

func TestListDocumentsReturnsUploaded(t *testing.T) {
	srv := newTestServer(t)
	uploadDocument(t, srv, "a.txt", "alpha content here")

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Documents []documentResponse `json:"documents"`
		Total     int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
}

func TestGetUnknownDocumentReturnsNotFound(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCollectionThenSearchAfterEmbedding(t *testing.T) {
	srv := newTestServer(t)
	uploaded := uploadDocument(t, srv, "doc.txt", "hello there. general kenobi.")

	createBody, err := json.Marshal(createCollectionRequest{
		Name: "Docs", Model: "default", VectorProvider: "fake-vector", EmbeddingProvider: "fake-embedder",
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/collections", bytes.NewReader(createBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var collection collectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collection))

	embedBody, err := json.Marshal(createEmbeddingsRequest{DocumentID: uploaded.Document.ID})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/collections/"+collection.ID+"/embeddings", bytes.NewReader(embedBody))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	searchBody, err := json.Marshal(searchRequest{Query: "kenobi", CollectionID: &collection.ID})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewReader(searchBody))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var results struct {
		Results []string `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.NotEmpty(t, results.Results)
}

func TestSubmitBatchStreamsAdditionThenDone(t *testing.T) {
	srv := newTestServer(t)
	uploaded := uploadDocument(t, srv, "doc.txt", "hello there. general kenobi.")

	createBody, err := json.Marshal(createCollectionRequest{
		Name: "Docs", Model: "default", VectorProvider: "fake-vector", EmbeddingProvider: "fake-embedder",
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/collections", bytes.NewReader(createBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var collection collectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collection))

	batchBody, err := json.Marshal(batchJobRequest{CollectionID: collection.ID, Add: []string{uploaded.Document.ID}})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/api/batch", bytes.NewReader(batchBody))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	decoder := json.NewDecoder(rec.Body)
	var events []jobEventPayload
	for {
		var ev jobEventPayload
		if err := decoder.Decode(&ev); err != nil {
			break
		}
		events = append(events, ev)
	}
	require.Len(t, events, 2)
	require.Equal(t, "addition", events[0].Kind)
	require.Equal(t, uploaded.Document.ID, events[0].DocumentID)
	require.Equal(t, "done", events[1].Kind)
}
