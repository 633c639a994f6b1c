package parser

import (
	"bytes"

	"github.com/nguyenthenguyen/docx"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/model"
)

// Docx parses DOCX documents via nguyenthenguyen/docx, pulling the editable
// body text before applying the configured range/filters.
type Docx struct {
	config model.ParseConfig
}

// NewDocx builds a Docx parser bound to config.
func NewDocx(config model.ParseConfig) Docx {
	return Docx{config: config}
}

func (p Docx) Parse(content []byte) (string, error) {
	reader := bytes.NewReader(content)

	doc, err := docx.ReadDocxFromMemory(reader, int64(len(content)))
	if err != nil {
		return "", chonkiterr.Wrap(chonkiterr.KindInfra, err, "opening DOCX document")
	}
	defer doc.Close()

	text := doc.Editable().GetContent()

	return p.config.Apply(text)
}
