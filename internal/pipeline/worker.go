package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"hragent/internal/chunker"
	"hragent/internal/embedder"
	"hragent/internal/store"
)

// DocumentEmbedder embeds chunk texts into vectors.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists embedded chunks and tracks resume embedding status.
type ChunkStore interface {
	StoreChunks(ctx context.Context, resumeID uuid.UUID, chunks []chunker.Chunk, vectors [][]float32) error
	UpdateEmbeddingStatus(ctx context.Context, id uuid.UUID, status string) error
}

// Worker embeds and stores the chunks of a single resume job.
type Worker struct {
	embedder DocumentEmbedder
	store    ChunkStore
	log      *slog.Logger
}

func NewWorker(e DocumentEmbedder, s ChunkStore, log *slog.Logger) *Worker {
	return &Worker{embedder: e, store: s, log: log}
}

// Process runs the embed-and-store pipeline for a job. The resume's
// embedding_status mirrors the job outcome.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "resume_id", job.ResumeID)

	chunks := job.Chunks()
	if len(chunks) == 0 {
		log.Warn("no chunks to embed")
		job.AddError("no chunks to embed")
		w.fail(ctx, job, "embedding")
		return
	}

	if err := w.store.UpdateEmbeddingStatus(ctx, job.ResumeID, store.StatusProcessing); err != nil {
		log.Warn("status update failed", "error", err)
	}

	// Phase 1: Embed in batches so progress is observable mid-job.
	job.SetStatus(StatusEmbedding, "embedding")
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedder.MaxBatchSize {
		end := start + embedder.MaxBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		batch, err := w.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			log.Error("embedding failed", "batch_start", start, "error", err)
			job.AddError(fmt.Sprintf("embed batch %d: %s", start, err))
			w.fail(ctx, job, "embedding")
			return
		}
		vectors = append(vectors, batch...)
		job.AddChunksEmbedded(len(batch))
	}
	log.Info("embedding complete", "chunks", len(chunks))

	// Phase 2: Store
	job.SetStatus(StatusStoring, "storing")
	if err := w.store.StoreChunks(ctx, job.ResumeID, chunks, vectors); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		w.fail(ctx, job, "storing")
		return
	}

	if err := w.store.UpdateEmbeddingStatus(ctx, job.ResumeID, store.StatusCompleted); err != nil {
		log.Warn("status update failed", "error", err)
	}
	job.SetStatus(StatusCompleted, "done")
	log.Info("job complete", "chunks", len(chunks))
}

func (w *Worker) fail(ctx context.Context, job *Job, phase string) {
	job.SetStatus(StatusFailed, phase)
	if err := w.store.UpdateEmbeddingStatus(ctx, job.ResumeID, store.StatusFailed); err != nil {
		w.log.Warn("status update failed", "job_id", job.ID, "error", err)
	}
}
