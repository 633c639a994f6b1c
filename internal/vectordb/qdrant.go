package vectordb

import (
	"context"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// contentPayloadKey and documentPayloadKey are the point payload fields
// every collection stores alongside its vector.
const (
	contentPayloadKey  = "content"
	documentPayloadKey = "document_id"
)

// Qdrant is a VectorDb backed by a qdrant/go-client connection, offered as
// an alternative to Pgvector for deployments that run Qdrant as their
// vector store rather than Postgres.
type Qdrant struct {
	client *qdrant.Client
}

// NewQdrant wraps an existing client. The caller owns its lifecycle.
func NewQdrant(client *qdrant.Client) *Qdrant {
	return &Qdrant{client: client}
}

func (q *Qdrant) ID() string { return "qdrant" }

func (q *Qdrant) ListVectorCollections(ctx context.Context) ([]string, error) {
	names, err := q.client.ListCollections(ctx)
	if err != nil {
		return nil, chonkiterr.Infra(err, "listing qdrant collections")
	}
	return names, nil
}

func (q *Qdrant) CreateVectorCollection(ctx context.Context, params CreateCollectionParams) error {
	if err := ValidateCollectionName(params.Name); err != nil {
		return err
	}

	err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: params.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(params.Size),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return chonkiterr.Infra(err, "creating qdrant collection %q", params.Name)
	}
	return nil
}

func (q *Qdrant) GetCollection(ctx context.Context, name string) (CollectionInfo, error) {
	info, err := q.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return CollectionInfo{}, chonkiterr.DoesNotExist("qdrant collection %q", name)
	}

	size := 0
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		size = int(params.GetSize())
	}
	return CollectionInfo{Name: name, Size: size}, nil
}

func (q *Qdrant) DeleteVectorCollection(ctx context.Context, name string) error {
	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	if err := q.client.DeleteCollection(ctx, name); err != nil {
		return chonkiterr.Infra(err, "deleting qdrant collection %q", name)
	}
	return nil
}

func (q *Qdrant) InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collectionName string, content []string, vectors [][]float64) error {
	if err := ValidateCollectionName(collectionName); err != nil {
		return err
	}
	if len(content) != len(vectors) {
		return chonkiterr.Chunks("content and vector counts differ: %d vs %d", len(content), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(content))
	for i, text := range content {
		vec := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec[j] = float32(v)
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.New().String()),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(map[string]any{
				contentPayloadKey:  text,
				documentPayloadKey: documentID.String(),
			}),
		}
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
	})
	if err != nil {
		return chonkiterr.Infra(err, "inserting embeddings into qdrant collection %q", collectionName)
	}
	return nil
}

func (q *Qdrant) DeleteEmbeddings(ctx context.Context, collectionName string, documentID uuid.UUID) error {
	if err := ValidateCollectionName(collectionName); err != nil {
		return err
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(documentPayloadKey, documentID.String()),
			},
		}),
	})
	if err != nil {
		return chonkiterr.Infra(err, "deleting embeddings from qdrant collection %q", collectionName)
	}
	return nil
}

func (q *Qdrant) Query(ctx context.Context, vector []float64, collectionName string, limit int) ([]string, error) {
	if err := ValidateCollectionName(collectionName); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	vec := make([]float32, len(vector))
	for i, v := range vector {
		vec[i] = float32(v)
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vec...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, chonkiterr.Infra(err, "querying qdrant collection %q", collectionName)
	}

	out := make([]string, 0, len(points))
	for _, p := range points {
		if v, ok := p.GetPayload()[contentPayloadKey]; ok {
			out = append(out, v.GetStringValue())
		}
	}
	return out, nil
}

func (q *Qdrant) CountVectors(ctx context.Context, collectionName string, documentID uuid.UUID) (int, error) {
	if err := ValidateCollectionName(collectionName); err != nil {
		return 0, err
	}

	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collectionName,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(documentPayloadKey, documentID.String()),
			},
		},
	})
	if err != nil {
		return 0, chonkiterr.Infra(err, "counting vectors in qdrant collection %q", collectionName)
	}
	return int(count), nil
}
