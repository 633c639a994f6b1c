package parser

import (
	"unicode/utf8"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/model"
)

// Text parses any document whose bytes are already valid UTF-8 text — .txt,
// .md, .xml, .json, .csv — and applies the configured range/filters on top.
type Text struct {
	config model.ParseConfig
}

// NewText builds a Text parser bound to config.
func NewText(config model.ParseConfig) Text {
	return Text{config: config}
}

func (p Text) Parse(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", chonkiterr.New(chonkiterr.KindInfra, "document content is not valid UTF-8")
	}
	return p.config.Apply(string(content))
}

func errUnsupported(docType model.DocumentType) error {
	return chonkiterr.UnsupportedFileType("no parser registered for %s", docType.String())
}
