package postgres

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chonkit/chonkit/internal/model"
)

// row abstracts over pgx.Row and pgx.Rows, both of which expose Scan.
type row interface {
	Scan(dest ...any) error
}

func scanDocument(r row) (model.Document, error) {
	var doc model.Document
	var ext string
	err := r.Scan(&doc.ID, &doc.Name, &doc.Path, &ext, &doc.Hash, &doc.Src, &doc.Label, &doc.Tags, &doc.CreatedAt, &doc.UpdatedAt)
	doc.Ext = ext
	return doc, err
}

func scanDocumentRows(r pgx.Rows) (model.Document, error) {
	return scanDocument(r)
}

func scanCollection(r row) (model.Collection, error) {
	var c model.Collection
	err := r.Scan(&c.ID, &c.Name, &c.Model, &c.EmbeddingProvider, &c.VectorProvider, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), the signal InsertDocument/InsertCollection/
// InsertEmbedding translate into AlreadyExists.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if err == nil {
		return false
	}
	if ok := scanPgError(err, &pgErr); ok {
		return pgErr.Code == "23505"
	}
	return false
}

func scanPgError(err error, target **pgconn.PgError) bool {
	for err != nil {
		if pe, ok := err.(*pgconn.PgError); ok {
			*target = pe
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// quoteIdent double-quotes a SQL identifier assembled from trusted,
// hard-coded callers only (table names, and a sort column restricted to a
// small allow-list by the caller) — never from unsanitized user input.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func placeholder(n int) string {
	return strconv.Itoa(n)
}
