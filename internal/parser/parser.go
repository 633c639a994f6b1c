// Package parser implements the Parser external contract: turning a
// document's raw bytes into text, honoring a ParseConfig's range
// restriction and regex filters.
package parser

import (
	"github.com/chonkit/chonkit/internal/model"
)

// Parser turns a document's bytes into text. Concrete implementations report
// every body they cannot read (invalid UTF-8, an unreadable PDF or DOCX) as a
// KindInfra chonkiterr error: spec.md §7's ParsePdf/DocxRead/Utf8
// transformation-failure kinds collapse onto that single kind in the Go port.
// New fails UnsupportedFileType for a document type with no parser.
type Parser interface {
	Parse(bytes []byte) (string, error)
}

// New resolves the concrete Parser for a document type, configured with its
// ParseConfig.
func New(docType model.DocumentType, config model.ParseConfig) (Parser, error) {
	switch docType.Kind {
	case model.DocumentTypeText:
		return NewText(config), nil
	case model.DocumentTypePdf:
		return NewPDF(config), nil
	case model.DocumentTypeDocx:
		return NewDocx(config), nil
	default:
		return nil, errUnsupported(docType)
	}
}
