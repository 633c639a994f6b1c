package vectordb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// Pgvector stores every collection in its own Postgres table, named after
// the collection, with the embedding column's dimension fixed at creation
// time — the natural generalisation of the teacher's single
// document_chunks table to chonkit's dynamically created, differently
// dimensioned collections.
type Pgvector struct {
	pool *pgxpool.Pool
}

// NewPgvector wraps an existing pool. The caller owns the pool's lifecycle.
func NewPgvector(pool *pgxpool.Pool) *Pgvector {
	return &Pgvector{pool: pool}
}

func (p *Pgvector) ID() string { return "pgvector" }

func (p *Pgvector) ListVectorCollections(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
SELECT table_name FROM chonkit_vector_collections ORDER BY table_name`)
	if err != nil {
		return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "listing pgvector collections")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "scanning collection name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "iterating collection names")
	}
	return names, nil
}

func (p *Pgvector) CreateVectorCollection(ctx context.Context, params CreateCollectionParams) error {
	if err := ValidateCollectionName(params.Name); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := ensureRegistry(ctx, tx); err != nil {
		return err
	}

	createTable := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL,
	content TEXT NOT NULL,
	embedding vector(%d) NOT NULL
)`, quoteIdent(params.Name), params.Size)

	if _, err := tx.Exec(ctx, createTable); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "creating collection table %q", params.Name)
	}

	indexDocID := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (document_id)`,
		quoteIdent(params.Name+"_document_id_idx"), quoteIdent(params.Name))
	if _, err := tx.Exec(ctx, indexDocID); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "indexing collection table %q", params.Name)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO chonkit_vector_collections (table_name, dimension)
VALUES ($1, $2)
ON CONFLICT (table_name) DO NOTHING`, params.Name, params.Size); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "registering collection %q", params.Name)
	}

	if err := tx.Commit(ctx); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "commit transaction")
	}
	return nil
}

func (p *Pgvector) GetCollection(ctx context.Context, name string) (CollectionInfo, error) {
	var dimension int
	err := p.pool.QueryRow(ctx, `
SELECT dimension FROM chonkit_vector_collections WHERE table_name = $1`, name).Scan(&dimension)
	if err == pgx.ErrNoRows {
		return CollectionInfo{}, chonkiterr.DoesNotExist("pgvector collection %q", name)
	}
	if err != nil {
		return CollectionInfo{}, chonkiterr.Wrap(chonkiterr.KindInfra, err, "looking up collection %q", name)
	}
	return CollectionInfo{Name: name, Size: dimension}, nil
}

func (p *Pgvector) DeleteVectorCollection(ctx context.Context, name string) error {
	if err := ValidateCollectionName(name); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name))); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "dropping collection table %q", name)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chonkit_vector_collections WHERE table_name = $1`, name); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "deregistering collection %q", name)
	}
	if err := tx.Commit(ctx); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "commit transaction")
	}
	return nil
}

func (p *Pgvector) InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collectionName string, content []string, vectors [][]float64) error {
	if err := ValidateCollectionName(collectionName); err != nil {
		return err
	}
	if len(content) != len(vectors) {
		return chonkiterr.Chunks("content and vector counts differ: %d vs %d", len(content), len(vectors))
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	insert := fmt.Sprintf(`INSERT INTO %s (id, document_id, content, embedding) VALUES ($1, $2, $3, $4)`, quoteIdent(collectionName))

	for i, text := range content {
		vec := make([]float32, len(vectors[i]))
		for j, v := range vectors[i] {
			vec[j] = float32(v)
		}
		if _, err := tx.Exec(ctx, insert, uuid.New(), documentID, text, pgvector.NewVector(vec)); err != nil {
			return chonkiterr.Wrap(chonkiterr.KindInfra, err, "inserting embedding into %q", collectionName)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "commit transaction")
	}
	return nil
}

func (p *Pgvector) DeleteEmbeddings(ctx context.Context, collectionName string, documentID uuid.UUID) error {
	if err := ValidateCollectionName(collectionName); err != nil {
		return err
	}

	del := fmt.Sprintf(`DELETE FROM %s WHERE document_id = $1`, quoteIdent(collectionName))
	if _, err := p.pool.Exec(ctx, del, documentID); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "deleting embeddings from %q", collectionName)
	}
	return nil
}

func (p *Pgvector) Query(ctx context.Context, vector []float64, collectionName string, limit int) ([]string, error) {
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

	query := fmt.Sprintf(`SELECT content FROM %s ORDER BY embedding <=> $1 LIMIT $2`, quoteIdent(collectionName))
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "querying collection %q", collectionName)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "scanning query result")
		}
		out = append(out, content)
	}
	if err := rows.Err(); err != nil {
		return nil, chonkiterr.Wrap(chonkiterr.KindInfra, err, "iterating query results")
	}
	return out, nil
}

func (p *Pgvector) CountVectors(ctx context.Context, collectionName string, documentID uuid.UUID) (int, error) {
	if err := ValidateCollectionName(collectionName); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE document_id = $1`, quoteIdent(collectionName))
	var count int
	if err := p.pool.QueryRow(ctx, query, documentID).Scan(&count); err != nil {
		return 0, chonkiterr.Wrap(chonkiterr.KindInfra, err, "counting vectors in %q", collectionName)
	}
	return count, nil
}

func ensureRegistry(ctx context.Context, tx pgx.Tx) error {
	const stmt = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS chonkit_vector_collections (
	table_name TEXT PRIMARY KEY,
	dimension INT NOT NULL
)`
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return chonkiterr.Wrap(chonkiterr.KindInfra, err, "ensuring pgvector registry table")
	}
	return nil
}

// quoteIdent double-quotes a Postgres identifier. Safe here because every
// caller first validates the name against collectionNamePattern, which
// admits only ASCII letters, digits, and underscores.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
