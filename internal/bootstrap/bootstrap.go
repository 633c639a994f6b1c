// Package bootstrap seeds a freshly provisioned deployment with the default
// collection and a built-in welcome document, so it has something to browse
// before any real upload happens.
package bootstrap

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/service/document"
	"github.com/chonkit/chonkit/internal/service/vector"
)

const welcomeDocumentName = "welcome.txt"

const welcomeDocumentContent = `Welcome to chonkit.

This is the built-in welcome document, seeded on first startup so the
document list isn't empty before you've uploaded anything of your own.
Feel free to delete it.`

// Seed creates the default collection and, if the repository holds no
// documents at all, uploads the welcome document. Safe to call on every
// startup: both steps swallow AlreadyExists.
func Seed(ctx context.Context, documents *document.Service, vectors *vector.Service, storageProvider, vectorProvider, embedderProvider string, logger zerolog.Logger) error {
	log := logger.With().Str("component", "bootstrap").Logger()

	if err := vectors.CreateDefaultCollection(ctx, vectorProvider, embedderProvider); err != nil {
		return err
	}

	list, err := documents.ListDocuments(ctx, model.PaginationSort{}, "")
	if err != nil {
		return err
	}
	if list.Total > 0 {
		log.Info().Int("count", list.Total).Msg("documents already present, skipping welcome document")
		return nil
	}

	_, err = documents.Upload(ctx, storageProvider, document.UploadParams{
		Name: welcomeDocumentName,
		Ext:  "txt",
		File: []byte(welcomeDocumentContent),
	})
	if chonkiterr.Is(err, chonkiterr.KindAlreadyExists) {
		log.Info().Msg("welcome document already exists")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Str("name", welcomeDocumentName).Msg("seeded welcome document")
	return nil
}
