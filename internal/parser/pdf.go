package parser

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/model"
)

// PDF parses PDF documents via ledongthuc/pdf, extracting plain text page by
// page before applying the configured range/filters.
type PDF struct {
	config model.ParseConfig
}

// NewPDF builds a PDF parser bound to config.
func NewPDF(config model.ParseConfig) PDF {
	return PDF{config: config}
}

func (p PDF) Parse(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", chonkiterr.Wrap(chonkiterr.KindInfra, err, "opening PDF document")
	}

	text, err := reader.GetPlainText()
	if err != nil {
		return "", chonkiterr.Wrap(chonkiterr.KindInfra, err, "extracting PDF text")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, text); err != nil {
		return "", chonkiterr.Wrap(chonkiterr.KindInfra, err, "reading extracted PDF text")
	}

	return p.config.Apply(buf.String())
}
