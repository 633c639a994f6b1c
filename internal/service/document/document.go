// Package document implements DocumentService: upload, retrieval, parsing,
// chunking, and lifecycle management for documents tracked by the metadata
// repository and held by a pluggable document store.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/chunk"
	"github.com/chonkit/chonkit/internal/embedder"
	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/parser"
	"github.com/chonkit/chonkit/internal/provider"
	"github.com/chonkit/chonkit/internal/repo/postgres"
)

var validate = validator.New()

// UploadParams is the DTO for Service.Upload.
type UploadParams struct {
	Name string `validate:"required"`
	// Ext is the bare file extension (no leading dot), e.g. "pdf", "txt".
	Ext  string `validate:"required"`
	File []byte `validate:"required,min=1"`
}

// ChunkPreviewParams is the DTO for Service.ChunkPreview. Parser is optional:
// when nil, the document's persisted parse configuration is used.
type ChunkPreviewParams struct {
	Parser  *model.ParseConfig
	Chunker model.ChunkConfig
}

// Service implements the high-level document operations: listing, content
// and chunk retrieval, upload, deletion, store/repository reconciliation,
// and parse/chunk configuration previews and updates.
type Service struct {
	repo      postgres.Repository
	providers *provider.State
	logger    zerolog.Logger
}

// New builds a Service over repo, resolving document stores, vector
// backends, and embedders through providers.
func New(repo postgres.Repository, providers *provider.State, logger zerolog.Logger) *Service {
	return &Service{repo: repo, providers: providers, logger: logger.With().Str("component", "document_service").Logger()}
}

// ListDocuments returns a paginated slice of documents, optionally filtered
// by source (document store id).
func (s *Service) ListDocuments(ctx context.Context, p model.PaginationSort, src string) (model.List[model.Document], error) {
	return s.repo.ListDocuments(ctx, p, src)
}

// GetDocument fetches a single document by id.
func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (model.Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// GetConfig returns a document bundled with its resolved parse and chunk
// configuration.
func (s *Service) GetConfig(ctx context.Context, id uuid.UUID) (model.DocumentConfig, error) {
	return s.repo.GetDocumentConfig(ctx, id)
}

// GetContent reads a document's full text using its persisted parse
// configuration, falling back to the default parser for its file type when
// it has none.
func (s *Service) GetContent(ctx context.Context, id uuid.UUID) (string, error) {
	document, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}

	store, err := s.providers.Document.Get(document.Src)
	if err != nil {
		return "", err
	}

	ext, err := model.DocumentTypeFromExt(document.Ext)
	if err != nil {
		return "", err
	}

	p, err := s.getParser(ctx, id, ext)
	if err != nil {
		return "", err
	}

	return store.Read(ctx, document.Path, p)
}

// GetChunks chunks content using document's persisted chunk configuration.
func (s *Service) GetChunks(ctx context.Context, document model.Document, content string) ([]string, error) {
	cfg, err := s.repo.GetDocumentConfig(ctx, document.ID)
	if err != nil {
		return nil, err
	}
	if cfg.Chunk == nil {
		return nil, chonkiterr.DoesNotExist("chunking config for document with ID %s", document.ID)
	}
	return s.chunk(ctx, *cfg.Chunk, content)
}

// Upload hashes file, stores it via the named storage provider, and inserts
// a document row with default parse/chunk configuration. Re-uploading
// identical bytes fails AlreadyExists.
func (s *Service) Upload(ctx context.Context, storageProvider string, params UploadParams) (model.DocumentConfig, error) {
	if err := validate.Struct(params); err != nil {
		return model.DocumentConfig{}, chonkiterr.Validation("%v", err)
	}

	docType, err := model.DocumentTypeFromExt(params.Ext)
	if err != nil {
		return model.DocumentConfig{}, err
	}

	store, err := s.providers.Document.Get(storageProvider)
	if err != nil {
		return model.DocumentConfig{}, err
	}

	hash := sha256Hex(params.File)

	existing, err := s.repo.GetDocumentByHash(ctx, hash)
	switch {
	case err == nil:
		return model.DocumentConfig{}, chonkiterr.AlreadyExists("new document (%s) has same hash as existing (%s)", params.Name, existing.Name)
	case !chonkiterr.Is(err, chonkiterr.KindDoesNotExist):
		return model.DocumentConfig{}, err
	}

	var document model.Document
	err = s.repo.Atomic(ctx, func(tx postgres.Repository) error {
		path, err := store.Write(ctx, params.Name, params.File)
		if err != nil {
			return err
		}

		ins := model.NewInsert(params.Name, path, store.ID(), hash, docType)
		doc, err := tx.InsertDocument(ctx, ins, model.DefaultParseConfig(), model.DefaultSnappingChunkConfig())
		if err != nil {
			return err
		}
		document = doc
		return nil
	})
	if err != nil {
		return model.DocumentConfig{}, err
	}

	return s.GetConfig(ctx, document.ID)
}

// Delete removes the document's metadata row (cascading to its parse/chunk
// configuration and embedding associations), drops its vectors from every
// collection it was embedded into, then deletes the underlying file.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	document, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	collections, err := s.repo.ListEmbeddingCollections(ctx, document.ID)
	if err != nil {
		return err
	}

	err = s.repo.Atomic(ctx, func(tx postgres.Repository) error {
		if err := tx.DeleteDocument(ctx, document.ID); err != nil {
			return err
		}
		for _, ec := range collections {
			vdb, err := s.providers.VectorDb.Get(ec.VectorProvider)
			if err != nil {
				return err
			}
			if err := vdb.DeleteEmbeddings(ctx, ec.CollectionName, document.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	store, err := s.providers.Document.Get(document.Src)
	if err != nil {
		return err
	}
	return store.Delete(ctx, document.Path)
}

// Sync reconciles the repository with a document store's actual contents:
// documents whose file no longer exists are pruned, and files present in the
// store but not yet tracked are inserted. Per-file failures are logged and
// skipped rather than aborting the whole sync.
func (s *Service) Sync(ctx context.Context, storageProvider string) error {
	store, err := s.providers.Document.Get(storageProvider)
	if err != nil {
		return err
	}

	s.logger.Info().Str("store", store.ID()).Msg("syncing documents with store")

	paths, err := s.repo.ListDocumentPaths(ctx, store.ID())
	if err != nil {
		return err
	}

	nonExisting, err := store.FilterNonExisting(ctx, paths)
	if err != nil {
		return err
	}

	for _, id := range nonExisting {
		if err := s.repo.DeleteDocument(ctx, id); err != nil {
			s.logger.Error().Err(err).Str("document_id", id.String()).Msg("failed to prune missing document")
		}
	}

	files, err := store.ListFiles(ctx)
	if err != nil {
		return err
	}

	for _, file := range files {
		if _, err := s.repo.GetDocumentByPath(ctx, file.Path, store.ID()); err == nil {
			continue
		} else if !chonkiterr.Is(err, chonkiterr.KindDoesNotExist) {
			s.logger.Error().Err(err).Str("path", file.Path).Msg("failed to look up document during sync")
			continue
		}

		content, err := store.GetBytes(ctx, file.Path)
		if err != nil {
			s.logger.Error().Err(err).Str("path", file.Path).Msg("failed to read file during sync")
			continue
		}

		docType, err := model.DocumentTypeFromExt(file.Ext)
		if err != nil {
			s.logger.Error().Err(err).Str("path", file.Path).Msg("skipping file with unsupported extension during sync")
			continue
		}

		ins := model.NewInsert(file.Name, file.Path, store.ID(), sha256Hex(content), docType)
		doc, err := s.repo.InsertDocument(ctx, ins, model.DefaultParseConfig(), model.DefaultSnappingChunkConfig())
		if err != nil {
			s.logger.Error().Err(err).Str("path", file.Path).Msg("failed to insert document during sync")
			continue
		}
		s.logger.Info().Str("document_id", doc.ID.String()).Str("name", doc.Name).Msg("inserted document during sync")
	}

	return nil
}

// ChunkPreview parses and chunks a document without persisting anything,
// useful for letting a caller try out a chunk configuration before committing
// to it with UpdateChunker.
func (s *Service) ChunkPreview(ctx context.Context, documentID uuid.UUID, params ChunkPreviewParams) ([]string, error) {
	if err := params.Chunker.Validate(); err != nil {
		return nil, err
	}

	parseCfg := params.Parser
	if parseCfg == nil {
		cfg, err := s.GetConfig(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if cfg.Parse == nil {
			return nil, chonkiterr.DoesNotExist("parsing configuration for %s", documentID)
		}
		parseCfg = cfg.Parse
	} else if err := parseCfg.Validate(); err != nil {
		return nil, err
	}

	content, err := s.ParsePreview(ctx, documentID, *parseCfg)
	if err != nil {
		return nil, err
	}

	return s.chunk(ctx, params.Chunker, content)
}

// chunk dispatches to the algorithm named by cfg, resolving and validating an
// embedder for the semantic strategy, and rejects an empty chunk result.
func (s *Service) chunk(ctx context.Context, cfg model.ChunkConfig, content string) ([]string, error) {
	algo, err := cfg.ToAlgorithm()
	if err != nil {
		return nil, err
	}

	var emb chunk.Embedder
	var modelName string
	if cfg.Kind == chunk.KindSemantic {
		e, err := s.providers.Embedder.Get(cfg.Semantic.EmbeddingProvider)
		if err != nil {
			return nil, err
		}
		if _, err := embedder.SizeOrErr(e, cfg.Semantic.EmbeddingModel); err != nil {
			return nil, err
		}
		emb = e
		modelName = cfg.Semantic.EmbeddingModel
	}

	chunks, err := algo.Chunk(ctx, content, emb, modelName)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, chonkiterr.Chunks("chunks cannot be empty")
	}
	return chunks, nil
}

// ParsePreview parses a document using the given configuration instead of
// its persisted one, without saving anything.
func (s *Service) ParsePreview(ctx context.Context, id uuid.UUID, config model.ParseConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}

	document, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}

	store, err := s.providers.Document.Get(document.Src)
	if err != nil {
		return "", err
	}

	ext, err := model.DocumentTypeFromExt(document.Ext)
	if err != nil {
		return "", err
	}

	p, err := parser.New(ext, config)
	if err != nil {
		return "", err
	}

	return store.Read(ctx, document.Path, p)
}

// UpdateParser replaces a document's persisted parse configuration.
func (s *Service) UpdateParser(ctx context.Context, id uuid.UUID, config model.ParseConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.UpsertParseConfig(ctx, id, config)
}

// UpdateChunker replaces a document's persisted chunk configuration.
func (s *Service) UpdateChunker(ctx context.Context, id uuid.UUID, config model.ChunkConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.UpsertChunkConfig(ctx, id, config)
}

// getParser resolves the parser for a document, using its persisted parse
// configuration when it has one, otherwise the zero-value default.
func (s *Service) getParser(ctx context.Context, id uuid.UUID, ext model.DocumentType) (parser.Parser, error) {
	cfg, err := s.repo.GetDocumentConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg.Parse != nil {
		return parser.New(ext, *cfg.Parse)
	}
	return parser.New(ext, model.DefaultParseConfig())
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
