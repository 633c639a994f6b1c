package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/chonkit/chonkit/internal/batch"
	"github.com/chonkit/chonkit/internal/bootstrap"
	"github.com/chonkit/chonkit/internal/config"
	"github.com/chonkit/chonkit/internal/docstore"
	"github.com/chonkit/chonkit/internal/embedder"
	"github.com/chonkit/chonkit/internal/httpapi"
	"github.com/chonkit/chonkit/internal/provider"
	"github.com/chonkit/chonkit/internal/repo/postgres"
	"github.com/chonkit/chonkit/internal/service/document"
	"github.com/chonkit/chonkit/internal/service/vector"
	"github.com/chonkit/chonkit/internal/vectordb"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("chonkit dev build")
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	providers := provider.NewState()

	fs, err := docstore.NewFilesystem("fs", cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up filesystem document store")
	}
	providers.Document.Register(fs.ID(), fs)

	pgv := vectordb.NewPgvector(pool)
	providers.VectorDb.Register(pgv.ID(), pgv)

	if cfg.Qdrant.Host != "" {
		qdrantClient, err := qdrant.NewClient(&qdrant.Config{Host: cfg.Qdrant.Host, Port: cfg.Qdrant.Port})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to qdrant")
		}
		qdb := vectordb.NewQdrant(qdrantClient)
		providers.VectorDb.Register(qdb.ID(), qdb)
	}

	models := make([]embedder.Model, len(cfg.Ollama.Models))
	for i, name := range cfg.Ollama.Models {
		models[i] = embedder.Model{Name: name, Dimension: cfg.Ollama.Dimension}
	}
	ollamaEmbedder := embedder.NewOllama("ollama", cfg.Ollama.Host, models, 90*time.Second)
	providers.Embedder.Register(ollamaEmbedder.ID(), ollamaEmbedder)

	repo := postgres.New(pool)

	documents := document.New(repo, providers, logger)
	vectors := vector.New(repo, providers, logger)
	batchEmbedder := batch.New(documents, vectors, cfg.BatchQueueSize, logger)

	batchCtx, stopBatch := context.WithCancel(context.Background())
	defer stopBatch()
	go batchEmbedder.Run(batchCtx)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := bootstrap.Seed(seedCtx, documents, vectors, cfg.Providers.DefaultStorage, cfg.Providers.DefaultVector, cfg.Providers.DefaultEmbedder, logger); err != nil {
		logger.Error().Err(err).Msg("bootstrap seed failed, continuing anyway")
	}
	cancelSeed()

	srv := httpapi.New(documents, vectors, batchEmbedder, cfg.CorsOrigins, logger)

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: srv,
	}

	logger.Info().Str("address", cfg.Address).Str("data_dir", cfg.DataDir).Msg("starting server")

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	waitForShutdown(httpServer, logger)
}

func waitForShutdown(srv *http.Server, logger zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("forced close failed")
		}
	}

	logger.Info().Msg("server stopped")
}
