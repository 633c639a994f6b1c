// Package docstore implements the DocumentStore external contract: reading
// document bytes, writing new documents, deleting, listing, and bulk
// existence checks, with the parsing step delegated to an injected Parser.
package docstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/chonkit/chonkit/internal/parser"
)

// FileInfo describes one stored file as returned by ListFiles.
type FileInfo struct {
	Name string
	Path string
	Ext  string
}

// DocumentStore is the external contract the core consumes for document
// byte storage, independent of where the metadata repository keeps the
// path reference.
type DocumentStore interface {
	ID() string
	Read(ctx context.Context, path string, p parser.Parser) (string, error)
	GetBytes(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, name string, content []byte) (string, error)
	Delete(ctx context.Context, path string) error
	ListFiles(ctx context.Context) ([]FileInfo, error)
	FilterNonExisting(ctx context.Context, documents map[uuid.UUID]string) ([]uuid.UUID, error)
}
