// Package model holds the data types shared across the core services:
// documents, parse/chunk configuration, collections, embeddings, and batch
// jobs, along with the paginated list envelope used by their list
// operations.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// Document holds file metadata tracked by the repository. The blob itself
// lives in the document store; Document only records where to find it.
type Document struct {
	ID        uuid.UUID
	Name      string
	Path      string
	Ext       string
	Hash      string
	Src       string
	Label     *string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentConfig bundles a document with its resolved parse and chunk
// configuration, the shape returned by DocumentService.GetConfig.
type DocumentConfig struct {
	Document Document
	Chunk    *ChunkConfig
	Parse    *ParseConfig
}

// DocumentShort is a minimal projection used in aggregate views.
type DocumentShort struct {
	ID   uuid.UUID
	Name string
}

// DocumentType tags the file formats chonkit can process. Text holds the
// finer-grained TextDocumentType; Pdf and Docx have no further detail.
type DocumentType struct {
	Kind TextKindOrBinary
	Text TextDocumentType
}

// TextKindOrBinary discriminates the DocumentType union.
type TextKindOrBinary string

const (
	DocumentTypeText TextKindOrBinary = "text"
	DocumentTypePdf  TextKindOrBinary = "pdf"
	DocumentTypeDocx TextKindOrBinary = "docx"
)

// TextDocumentType enumerates the concrete text-like extensions.
type TextDocumentType string

const (
	TextMd  TextDocumentType = "md"
	TextXml TextDocumentType = "xml"
	TextJson TextDocumentType = "json"
	TextCsv TextDocumentType = "csv"
	TextTxt TextDocumentType = "txt"
)

// String renders the lowercase extension tag stored alongside documents.
func (t DocumentType) String() string {
	switch t.Kind {
	case DocumentTypeText:
		return string(t.Text)
	case DocumentTypePdf:
		return "pdf"
	case DocumentTypeDocx:
		return "docx"
	default:
		return "unknown"
	}
}

// DocumentTypeFromFileName derives a DocumentType from a file's extension.
func DocumentTypeFromFileName(name string) (DocumentType, error) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return DocumentType{}, chonkiterr.UnsupportedFileType("%s - missing extension", name)
	}
	return DocumentTypeFromExt(name[idx+1:])
}

// DocumentTypeFromExt maps a bare extension (no leading dot) to a
// DocumentType, failing UnsupportedFileType for anything not recognised.
func DocumentTypeFromExt(ext string) (DocumentType, error) {
	switch strings.ToLower(ext) {
	case "md":
		return DocumentType{Kind: DocumentTypeText, Text: TextMd}, nil
	case "xml":
		return DocumentType{Kind: DocumentTypeText, Text: TextXml}, nil
	case "json":
		return DocumentType{Kind: DocumentTypeText, Text: TextJson}, nil
	case "csv":
		return DocumentType{Kind: DocumentTypeText, Text: TextCsv}, nil
	case "txt":
		return DocumentType{Kind: DocumentTypeText, Text: TextTxt}, nil
	case "pdf":
		return DocumentType{Kind: DocumentTypePdf}, nil
	case "docx":
		return DocumentType{Kind: DocumentTypeDocx}, nil
	default:
		return DocumentType{}, chonkiterr.UnsupportedFileType("%s", ext)
	}
}

// Insert is the DTO DocumentService.Upload uses to create a document row.
type Insert struct {
	ID    uuid.UUID
	Name  string
	Path  string
	Ext   DocumentType
	Hash  string
	Src   string
	Label *string
	Tags  []string
}

// NewInsert builds an Insert with a freshly generated id.
func NewInsert(name, path, src, hash string, ext DocumentType) Insert {
	return Insert{ID: uuid.New(), Name: name, Path: path, Ext: ext, Hash: hash, Src: src}
}

// Update is the DTO for partial document metadata updates.
type Update struct {
	Name  *string
	Label *string
	Tags  []string
}
