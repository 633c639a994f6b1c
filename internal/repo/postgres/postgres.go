package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting Postgres
// run every query either directly against the pool or against the active
// transaction inside Atomic.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Repository on top of a pgx connection pool,
// generalizing the teacher's vectorstore.Store transaction shape
// (Begin/Exec.../Commit, deferred Rollback) across five related tables
// instead of one.
type Postgres struct {
	pool *pgxpool.Pool
	db   querier
}

// New wraps an existing pool. The caller owns the pool's lifecycle and is
// responsible for running Migrate beforehand.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, db: pool}
}

var _ Repository = (*Postgres)(nil)

func (p *Postgres) Atomic(ctx context.Context, fn func(tx Repository) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return chonkiterr.Infra(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	scoped := &Postgres{pool: p.pool, db: tx}
	if err := fn(scoped); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return chonkiterr.Infra(err, "commit transaction")
	}
	return nil
}

func (p *Postgres) InsertDocument(ctx context.Context, ins model.Insert, parse model.ParseConfig, chunkCfg model.ChunkConfig) (model.Document, error) {
	now, err := p.insertDocumentRow(ctx, ins)
	if err != nil {
		return model.Document{}, err
	}

	if err := p.UpsertParseConfig(ctx, ins.ID, parse); err != nil {
		return model.Document{}, err
	}
	if err := p.UpsertChunkConfig(ctx, ins.ID, chunkCfg); err != nil {
		return model.Document{}, err
	}

	return now, nil
}

func (p *Postgres) insertDocumentRow(ctx context.Context, ins model.Insert) (model.Document, error) {
	const stmt = `
INSERT INTO documents (id, name, path, ext, hash, src, label, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, name, path, ext, hash, src, label, tags, created_at, updated_at`

	row := p.db.QueryRow(ctx, stmt, ins.ID, ins.Name, ins.Path, ins.Ext.String(), ins.Hash, ins.Src, ins.Label, ins.Tags)
	doc, err := scanDocument(row)
	if isUniqueViolation(err) {
		return model.Document{}, chonkiterr.AlreadyExists("document with hash %q", ins.Hash)
	}
	if err != nil {
		return model.Document{}, chonkiterr.Infra(err, "insert document %q", ins.Name)
	}
	return doc, nil
}

func (p *Postgres) GetDocument(ctx context.Context, id uuid.UUID) (model.Document, error) {
	const stmt = `SELECT id, name, path, ext, hash, src, label, tags, created_at, updated_at FROM documents WHERE id = $1`
	doc, err := scanDocument(p.db.QueryRow(ctx, stmt, id))
	if err == pgx.ErrNoRows {
		return model.Document{}, chonkiterr.DoesNotExist("document %s", id)
	}
	if err != nil {
		return model.Document{}, chonkiterr.Infra(err, "get document %s", id)
	}
	return doc, nil
}

func (p *Postgres) GetDocumentByHash(ctx context.Context, hash string) (model.Document, error) {
	const stmt = `SELECT id, name, path, ext, hash, src, label, tags, created_at, updated_at FROM documents WHERE hash = $1`
	doc, err := scanDocument(p.db.QueryRow(ctx, stmt, hash))
	if err == pgx.ErrNoRows {
		return model.Document{}, chonkiterr.DoesNotExist("document with hash %q", hash)
	}
	if err != nil {
		return model.Document{}, chonkiterr.Infra(err, "get document by hash %q", hash)
	}
	return doc, nil
}

func (p *Postgres) GetDocumentByPath(ctx context.Context, path, src string) (model.Document, error) {
	const stmt = `SELECT id, name, path, ext, hash, src, label, tags, created_at, updated_at FROM documents WHERE path = $1 AND src = $2`
	doc, err := scanDocument(p.db.QueryRow(ctx, stmt, path, src))
	if err == pgx.ErrNoRows {
		return model.Document{}, chonkiterr.DoesNotExist("document at path %q", path)
	}
	if err != nil {
		return model.Document{}, chonkiterr.Infra(err, "get document by path %q", path)
	}
	return doc, nil
}

// documentSortColumns allow-lists the columns ListDocuments may sort by,
// since the sort column is interpolated into the query rather than bound
// as a parameter.
var documentSortColumns = map[string]bool{
	"name": true, "created_at": true, "updated_at": true,
}

func (p *Postgres) ListDocuments(ctx context.Context, pg model.PaginationSort, src string) (model.List[model.Document], error) {
	sortBy := "created_at"
	if pg.SortBy != "" && documentSortColumns[pg.SortBy] {
		sortBy = pg.SortBy
	}
	dir := "ASC"
	if pg.SortDir == model.SortDescending {
		dir = "DESC"
	}

	stmt := `SELECT id, name, path, ext, hash, src, label, tags, created_at, updated_at FROM documents`
	args := []any{}
	if src != "" {
		stmt += ` WHERE src = $1`
		args = append(args, src)
	}
	stmt += ` ORDER BY ` + quoteIdent(sortBy) + ` ` + dir
	stmt += ` LIMIT $` + placeholder(len(args)+1) + ` OFFSET $` + placeholder(len(args)+2)
	args = append(args, pg.Limit(), pg.Offset())

	rows, err := p.db.Query(ctx, stmt, args...)
	if err != nil {
		return model.List[model.Document]{}, chonkiterr.Infra(err, "list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return model.List[model.Document]{}, chonkiterr.Infra(err, "scan document row")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return model.List[model.Document]{}, chonkiterr.Infra(err, "iterate documents")
	}

	total, err := p.countRows(ctx, "documents", src)
	if err != nil {
		return model.List[model.Document]{}, err
	}

	return model.List[model.Document]{Items: docs, Total: total}, nil
}

func (p *Postgres) countRows(ctx context.Context, table, src string) (int, error) {
	stmt := `SELECT COUNT(*) FROM ` + quoteIdent(table)
	args := []any{}
	if src != "" {
		stmt += ` WHERE src = $1`
		args = append(args, src)
	}
	var total int
	if err := p.db.QueryRow(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, chonkiterr.Infra(err, "count %s", table)
	}
	return total, nil
}

func (p *Postgres) ListDocumentPaths(ctx context.Context, src string) (map[uuid.UUID]string, error) {
	rows, err := p.db.Query(ctx, `SELECT id, path FROM documents WHERE src = $1`, src)
	if err != nil {
		return nil, chonkiterr.Infra(err, "list document paths")
	}
	defer rows.Close()

	out := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, chonkiterr.Infra(err, "scan document path")
		}
		out[id] = path
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateDocument(ctx context.Context, id uuid.UUID, upd model.Update) (model.Document, error) {
	const stmt = `
UPDATE documents SET
	name = COALESCE($2, name),
	label = COALESCE($3, label),
	tags = COALESCE($4, tags),
	updated_at = NOW()
WHERE id = $1
RETURNING id, name, path, ext, hash, src, label, tags, created_at, updated_at`

	var tags any
	if upd.Tags != nil {
		tags = upd.Tags
	}

	doc, err := scanDocument(p.db.QueryRow(ctx, stmt, id, upd.Name, upd.Label, tags))
	if err == pgx.ErrNoRows {
		return model.Document{}, chonkiterr.DoesNotExist("document %s", id)
	}
	if err != nil {
		return model.Document{}, chonkiterr.Infra(err, "update document %s", id)
	}
	return doc, nil
}

func (p *Postgres) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return chonkiterr.Infra(err, "delete document %s", id)
	}
	if tag.RowsAffected() == 0 {
		return chonkiterr.DoesNotExist("document %s", id)
	}
	return nil
}

func (p *Postgres) GetDocumentConfig(ctx context.Context, id uuid.UUID) (model.DocumentConfig, error) {
	doc, err := p.GetDocument(ctx, id)
	if err != nil {
		return model.DocumentConfig{}, err
	}

	cfg := model.DocumentConfig{Document: doc}

	var parseBlob []byte
	err = p.db.QueryRow(ctx, `SELECT config FROM parsers WHERE document_id = $1`, id).Scan(&parseBlob)
	if err != nil && err != pgx.ErrNoRows {
		return model.DocumentConfig{}, chonkiterr.Infra(err, "get parse config for document %s", id)
	}
	if err == nil {
		var parse model.ParseConfig
		if err := json.Unmarshal(parseBlob, &parse); err != nil {
			return model.DocumentConfig{}, chonkiterr.Infra(err, "decode parse config for document %s", id)
		}
		cfg.Parse = &parse
	}

	var chunkBlob []byte
	err = p.db.QueryRow(ctx, `SELECT config FROM chunkers WHERE document_id = $1`, id).Scan(&chunkBlob)
	if err != nil && err != pgx.ErrNoRows {
		return model.DocumentConfig{}, chonkiterr.Infra(err, "get chunk config for document %s", id)
	}
	if err == nil {
		var chunkCfg model.ChunkConfig
		if err := json.Unmarshal(chunkBlob, &chunkCfg); err != nil {
			return model.DocumentConfig{}, chonkiterr.Infra(err, "decode chunk config for document %s", id)
		}
		cfg.Chunk = &chunkCfg
	}

	return cfg, nil
}

func (p *Postgres) UpsertParseConfig(ctx context.Context, documentID uuid.UUID, cfg model.ParseConfig) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return chonkiterr.Infra(err, "encode parse config")
	}

	const stmt = `
INSERT INTO parsers (document_id, config)
VALUES ($1, $2)
ON CONFLICT (document_id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()`

	if _, err := p.db.Exec(ctx, stmt, documentID, blob); err != nil {
		return chonkiterr.Infra(err, "upsert parse config for document %s", documentID)
	}
	return nil
}

func (p *Postgres) UpsertChunkConfig(ctx context.Context, documentID uuid.UUID, cfg model.ChunkConfig) error {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return chonkiterr.Infra(err, "encode chunk config")
	}

	const stmt = `
INSERT INTO chunkers (document_id, config)
VALUES ($1, $2)
ON CONFLICT (document_id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()`

	if _, err := p.db.Exec(ctx, stmt, documentID, blob); err != nil {
		return chonkiterr.Infra(err, "upsert chunk config for document %s", documentID)
	}
	return nil
}

func (p *Postgres) InsertCollection(ctx context.Context, ins model.CollectionInsert) (model.Collection, error) {
	const stmt = `
INSERT INTO collections (id, name, model, embedding_provider, vector_provider)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, model, embedding_provider, vector_provider, created_at, updated_at`

	row := p.db.QueryRow(ctx, stmt, ins.ID, ins.Name, ins.Model, ins.EmbeddingProvider, ins.VectorProvider)
	col, err := scanCollection(row)
	if isUniqueViolation(err) {
		return model.Collection{}, chonkiterr.AlreadyExists("collection %q on vector provider %q", ins.Name, ins.VectorProvider)
	}
	if err != nil {
		return model.Collection{}, chonkiterr.Infra(err, "insert collection %q", ins.Name)
	}
	return col, nil
}

func (p *Postgres) GetCollection(ctx context.Context, id uuid.UUID) (model.Collection, error) {
	const stmt = `SELECT id, name, model, embedding_provider, vector_provider, created_at, updated_at FROM collections WHERE id = $1`
	col, err := scanCollection(p.db.QueryRow(ctx, stmt, id))
	if err == pgx.ErrNoRows {
		return model.Collection{}, chonkiterr.DoesNotExist("collection %s", id)
	}
	if err != nil {
		return model.Collection{}, chonkiterr.Infra(err, "get collection %s", id)
	}
	return col, nil
}

func (p *Postgres) GetCollectionByName(ctx context.Context, name, vectorProvider string) (model.Collection, error) {
	const stmt = `SELECT id, name, model, embedding_provider, vector_provider, created_at, updated_at FROM collections WHERE name = $1 AND vector_provider = $2`
	col, err := scanCollection(p.db.QueryRow(ctx, stmt, name, vectorProvider))
	if err == pgx.ErrNoRows {
		return model.Collection{}, chonkiterr.DoesNotExist("collection %q on vector provider %q", name, vectorProvider)
	}
	if err != nil {
		return model.Collection{}, chonkiterr.Infra(err, "get collection %q", name)
	}
	return col, nil
}

func (p *Postgres) GetCollectionDisplay(ctx context.Context, id uuid.UUID) (model.CollectionDisplay, error) {
	const stmt = `
SELECT c.id, c.name, c.model, c.embedding_provider, c.vector_provider, c.created_at, c.updated_at,
       COUNT(e.id) AS document_count
FROM collections c
LEFT JOIN embeddings e ON e.collection_id = c.id
WHERE c.id = $1
GROUP BY c.id`

	var d model.CollectionDisplay
	row := p.db.QueryRow(ctx, stmt, id)
	err := row.Scan(&d.Collection.ID, &d.Collection.Name, &d.Collection.Model,
		&d.Collection.EmbeddingProvider, &d.Collection.VectorProvider,
		&d.Collection.CreatedAt, &d.Collection.UpdatedAt, &d.DocumentCount)
	if err == pgx.ErrNoRows {
		return model.CollectionDisplay{}, chonkiterr.DoesNotExist("collection %s", id)
	}
	if err != nil {
		return model.CollectionDisplay{}, chonkiterr.Infra(err, "get collection display %s", id)
	}
	return d, nil
}

func (p *Postgres) ListCollections(ctx context.Context, pg model.PaginationSort) (model.List[model.CollectionDisplay], error) {
	const stmt = `
SELECT c.id, c.name, c.model, c.embedding_provider, c.vector_provider, c.created_at, c.updated_at,
       COUNT(e.id) AS document_count
FROM collections c
LEFT JOIN embeddings e ON e.collection_id = c.id
GROUP BY c.id
ORDER BY c.created_at ASC
LIMIT $1 OFFSET $2`

	rows, err := p.db.Query(ctx, stmt, pg.Limit(), pg.Offset())
	if err != nil {
		return model.List[model.CollectionDisplay]{}, chonkiterr.Infra(err, "list collections")
	}
	defer rows.Close()

	var displays []model.CollectionDisplay
	for rows.Next() {
		var d model.CollectionDisplay
		if err := rows.Scan(&d.Collection.ID, &d.Collection.Name, &d.Collection.Model,
			&d.Collection.EmbeddingProvider, &d.Collection.VectorProvider,
			&d.Collection.CreatedAt, &d.Collection.UpdatedAt, &d.DocumentCount); err != nil {
			return model.List[model.CollectionDisplay]{}, chonkiterr.Infra(err, "scan collection row")
		}
		displays = append(displays, d)
	}
	if err := rows.Err(); err != nil {
		return model.List[model.CollectionDisplay]{}, chonkiterr.Infra(err, "iterate collections")
	}

	total, err := p.countRows(ctx, "collections", "")
	if err != nil {
		return model.List[model.CollectionDisplay]{}, err
	}

	return model.List[model.CollectionDisplay]{Items: displays, Total: total}, nil
}

func (p *Postgres) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return chonkiterr.Infra(err, "delete collection %s", id)
	}
	if tag.RowsAffected() == 0 {
		return chonkiterr.DoesNotExist("collection %s", id)
	}
	return nil
}

func (p *Postgres) InsertEmbedding(ctx context.Context, ins model.EmbeddingInsert) (model.Embedding, error) {
	const stmt = `
INSERT INTO embeddings (id, document_id, collection_id)
VALUES ($1, $2, $3)
RETURNING id, document_id, collection_id, created_at, updated_at`

	row := p.db.QueryRow(ctx, stmt, ins.ID, ins.DocumentID, ins.CollectionID)
	var e model.Embedding
	err := row.Scan(&e.ID, &e.DocumentID, &e.CollectionID, &e.CreatedAt, &e.UpdatedAt)
	if isUniqueViolation(err) {
		return model.Embedding{}, chonkiterr.AlreadyExists("embedding for document %s in collection %s", ins.DocumentID, ins.CollectionID)
	}
	if err != nil {
		return model.Embedding{}, chonkiterr.Infra(err, "insert embedding")
	}
	return e, nil
}

func (p *Postgres) GetEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) (model.Embedding, error) {
	const stmt = `SELECT id, document_id, collection_id, created_at, updated_at FROM embeddings WHERE document_id = $1 AND collection_id = $2`
	var e model.Embedding
	err := p.db.QueryRow(ctx, stmt, documentID, collectionID).Scan(&e.ID, &e.DocumentID, &e.CollectionID, &e.CreatedAt, &e.UpdatedAt)
	if err == pgx.ErrNoRows {
		return model.Embedding{}, chonkiterr.DoesNotExist("embedding for document %s in collection %s", documentID, collectionID)
	}
	if err != nil {
		return model.Embedding{}, chonkiterr.Infra(err, "get embedding")
	}
	return e, nil
}

func (p *Postgres) ListEmbeddingCollections(ctx context.Context, documentID uuid.UUID) ([]EmbeddingCollection, error) {
	const stmt = `
SELECT c.id, c.name, c.vector_provider
FROM embeddings e
JOIN collections c ON c.id = e.collection_id
WHERE e.document_id = $1`

	rows, err := p.db.Query(ctx, stmt, documentID)
	if err != nil {
		return nil, chonkiterr.Infra(err, "list embedding collections for document %s", documentID)
	}
	defer rows.Close()

	var out []EmbeddingCollection
	for rows.Next() {
		var ec EmbeddingCollection
		if err := rows.Scan(&ec.CollectionID, &ec.CollectionName, &ec.VectorProvider); err != nil {
			return nil, chonkiterr.Infra(err, "scan embedding collection row")
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteEmbedding(ctx context.Context, documentID, collectionID uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM embeddings WHERE document_id = $1 AND collection_id = $2`, documentID, collectionID)
	if err != nil {
		return chonkiterr.Infra(err, "delete embedding")
	}
	if tag.RowsAffected() == 0 {
		return chonkiterr.DoesNotExist("embedding for document %s in collection %s", documentID, collectionID)
	}
	return nil
}
