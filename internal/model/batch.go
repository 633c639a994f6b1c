package model

import (
	"time"

	"github.com/google/uuid"
)

// BatchJob is a unit of work submitted to the batch embedder: embed and
// associate every document in Add with CollectionID, then remove every
// document in Remove from it, reporting per-item progress on Results.
// Add items are processed before Remove items, each list in input order.
type BatchJob struct {
	CollectionID uuid.UUID
	Add          []uuid.UUID
	Remove       []uuid.UUID

	// Results receives one JobEvent per processed item, followed by a
	// single JobEventDone sentinel. The channel must be buffered to at
	// least len(Add)+len(Remove)+1 or a slow consumer stalls the embedder's
	// single dispatch loop, in turn stalling intake of new jobs.
	Results chan<- JobEvent

	// Cancel, if non-nil, lets the submitter abandon the job's results: once
	// closed, the embedder stops attempting to deliver further events for
	// this job instead of blocking on a full or unread Results channel.
	Cancel <-chan struct{}
}

// JobEventKind discriminates the variants of JobEvent.
type JobEventKind int

const (
	JobEventAddition JobEventKind = iota
	JobEventRemoval
	JobEventError
	JobEventDone
)

// JobEvent is a single message emitted to a job's result channel: the
// outcome of processing one document (Addition/Removal/Error), or the Done
// sentinel marking the job finished.
type JobEvent struct {
	JobID    uuid.UUID
	Kind     JobEventKind
	Addition *EmbeddingAddReport
	Removal  *EmbeddingRemovalReport
	Err      error
}

// EmbeddingAddReport describes one document successfully added to a
// collection.
type EmbeddingAddReport struct {
	DocumentID   uuid.UUID
	CollectionID uuid.UUID
	EmbeddingID  uuid.UUID
	ModelUsed    string
	VectorDb     string
	TotalChunks  int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// EmbeddingRemovalReport describes one document successfully removed from a
// collection.
type EmbeddingRemovalReport struct {
	DocumentID   uuid.UUID
	CollectionID uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
}
