// Package batch implements Embedder, the single cooperative actor that
// processes batch embedding jobs: adding documents to a collection and
// removing them from one, streaming per-item progress back to the
// submitter.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/model"
	"github.com/chonkit/chonkit/internal/service/document"
	"github.com/chonkit/chonkit/internal/service/vector"
)

// outcome is the internal message a job's goroutine sends back to Run: an
// item event destined for the job's own Results channel, or a done signal
// telling Run to forget the job.
type outcome struct {
	jobID uuid.UUID
	event model.JobEvent
	done  bool
}

// Embedder owns the job_id → in-flight-job map described by the batch
// embedding contract. It is not safe to call Run concurrently, but Submit
// may be called from any number of goroutines.
type Embedder struct {
	documents *document.Service
	vectors   *vector.Service

	jobs     chan model.BatchJob
	internal chan outcome

	logger zerolog.Logger
}

// New builds an Embedder. queueSize bounds both the inbound job queue and
// the internal result-routing channel.
func New(documents *document.Service, vectors *vector.Service, queueSize int, logger zerolog.Logger) *Embedder {
	return &Embedder{
		documents: documents,
		vectors:   vectors,
		jobs:      make(chan model.BatchJob, queueSize),
		internal:  make(chan outcome, queueSize),
		logger:    logger.With().Str("component", "batch_embedder").Logger(),
	}
}

// Submit enqueues a job. It blocks until the inbound queue has room or ctx
// is cancelled.
func (e *Embedder) Submit(ctx context.Context, job model.BatchJob) error {
	select {
	case e.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the embedder's single cooperative task. It owns the job map
// exclusively and must run in its own goroutine; it returns when ctx is
// cancelled.
func (e *Embedder) Run(ctx context.Context) {
	q := make(map[uuid.UUID]model.BatchJob)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("batch embedder shutting down")
			return

		case job, ok := <-e.jobs:
			if !ok {
				e.logger.Info().Msg("job queue closed, shutting down")
				return
			}
			jobID := uuid.New()
			q[jobID] = job
			e.logger.Info().
				Str("job_id", jobID.String()).
				Int("add", len(job.Add)).
				Int("remove", len(job.Remove)).
				Msg("starting batch job")
			go e.executeJob(ctx, jobID, job)

		case out := <-e.internal:
			job, ok := q[out.jobID]
			if !ok {
				continue
			}
			if out.done {
				delete(q, out.jobID)
				e.logger.Debug().Str("job_id", out.jobID.String()).Msg("job finished")
				continue
			}
			select {
			case job.Results <- out.event:
			case <-job.Cancel:
				e.logger.Debug().Str("job_id", out.jobID.String()).Msg("job's result channel abandoned")
			case <-ctx.Done():
			}
		}
	}
}

func (e *Embedder) executeJob(ctx context.Context, jobID uuid.UUID, job model.BatchJob) {
	send := func(ev model.JobEvent) {
		ev.JobID = jobID
		select {
		case e.internal <- outcome{jobID: jobID, event: ev}:
		case <-ctx.Done():
		}
	}
	sendErr := func(err error) {
		send(model.JobEvent{Kind: model.JobEventError, Err: err})
	}
	finish := func() {
		send(model.JobEvent{Kind: model.JobEventDone})
		select {
		case e.internal <- outcome{jobID: jobID, done: true}:
		case <-ctx.Done():
		}
	}

	collection, err := e.vectors.GetCollection(ctx, job.CollectionID)
	if err != nil {
		sendErr(err)
		finish()
		return
	}

	for _, documentID := range job.Add {
		started := time.Now()
		e.logger.Debug().Str("job_id", jobID.String()).Str("document_id", documentID.String()).Msg("processing document")

		if _, err := e.vectors.GetEmbeddings(ctx, documentID, collection.ID); err == nil {
			sendErr(chonkiterr.AlreadyExists("embeddings for document %s in collection %s", documentID, collection.ID))
			continue
		} else if !chonkiterr.Is(err, chonkiterr.KindDoesNotExist) {
			sendErr(err)
			continue
		}

		doc, err := e.documents.GetDocument(ctx, documentID)
		if err != nil {
			sendErr(err)
			continue
		}

		content, err := e.documents.GetContent(ctx, documentID)
		if err != nil {
			sendErr(err)
			continue
		}

		chunks, err := e.documents.GetChunks(ctx, doc, content)
		if err != nil {
			sendErr(err)
			continue
		}

		embedding, err := e.vectors.CreateEmbeddings(ctx, vector.CreateEmbeddingsParams{
			DocumentID: documentID, CollectionID: collection.ID, Chunks: chunks,
		})
		if err != nil {
			sendErr(err)
			continue
		}

		send(model.JobEvent{
			Kind: model.JobEventAddition,
			Addition: &model.EmbeddingAddReport{
				DocumentID:   documentID,
				CollectionID: collection.ID,
				EmbeddingID:  embedding.ID,
				ModelUsed:    collection.Model,
				VectorDb:     collection.VectorProvider,
				TotalChunks:  len(chunks),
				StartedAt:    started,
				FinishedAt:   time.Now(),
			},
		})
	}

	for _, documentID := range job.Remove {
		started := time.Now()

		if err := e.vectors.DeleteEmbeddings(ctx, collection.ID, documentID); err != nil {
			sendErr(err)
			continue
		}

		send(model.JobEvent{
			Kind: model.JobEventRemoval,
			Removal: &model.EmbeddingRemovalReport{
				DocumentID:   documentID,
				CollectionID: collection.ID,
				StartedAt:    started,
				FinishedAt:   time.Now(),
			},
		})
	}

	finish()
}
