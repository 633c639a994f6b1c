package vectordb

import (
	"context"

	"github.com/google/uuid"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// Weaviate is an interface-only stub. spec.md §1 lists Weaviate among the
// concrete vector-database drivers treated as an external collaborator, and
// no example repo in the pack imports a Weaviate client, so there is no
// grounded third-party library to wire it to here. The type exists so the
// provider registry can name "weaviate" as a known-but-unimplemented
// backend rather than silently rejecting it as unknown; every method fails
// with a KindInfra error until a real client is wired in.
//
// spec.md §6.3 notes Weaviate capitalises class names, so a real
// implementation would also need to persist the original, verbatim-cased
// collection name as a class property alongside the capitalised class name.
type Weaviate struct{}

// NewWeaviate constructs the stub backend.
func NewWeaviate() *Weaviate { return &Weaviate{} }

func (w *Weaviate) ID() string { return "weaviate" }

func (w *Weaviate) notImplemented(op string) error {
	return chonkiterr.Infra(nil, "weaviate backend does not implement %s", op)
}

func (w *Weaviate) ListVectorCollections(ctx context.Context) ([]string, error) {
	return nil, w.notImplemented("ListVectorCollections")
}

func (w *Weaviate) CreateVectorCollection(ctx context.Context, params CreateCollectionParams) error {
	return w.notImplemented("CreateVectorCollection")
}

func (w *Weaviate) GetCollection(ctx context.Context, name string) (CollectionInfo, error) {
	return CollectionInfo{}, w.notImplemented("GetCollection")
}

func (w *Weaviate) DeleteVectorCollection(ctx context.Context, name string) error {
	return w.notImplemented("DeleteVectorCollection")
}

func (w *Weaviate) InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collectionName string, content []string, vectors [][]float64) error {
	return w.notImplemented("InsertEmbeddings")
}

func (w *Weaviate) DeleteEmbeddings(ctx context.Context, collectionName string, documentID uuid.UUID) error {
	return w.notImplemented("DeleteEmbeddings")
}

func (w *Weaviate) Query(ctx context.Context, vector []float64, collectionName string, limit int) ([]string, error) {
	return nil, w.notImplemented("Query")
}

func (w *Weaviate) CountVectors(ctx context.Context, collectionName string, documentID uuid.UUID) (int, error) {
	return 0, w.notImplemented("CountVectors")
}
