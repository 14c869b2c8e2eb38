package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"hragent/internal/chunker"
	"hragent/internal/store"
)

func TestNewJob_StartsQueued(t *testing.T) {
	resumeID := uuid.New()
	chunks := []chunker.Chunk{{Text: "a"}, {Text: "b"}}
	job := NewJob(resumeID, "Jane Doe", "jane.pdf", chunks)

	if job.ID == "" {
		t.Error("expected non-empty job ID")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Progress.TotalChunks != 2 {
		t.Errorf("expected 2 total chunks, got %d", job.Progress.TotalChunks)
	}
	if job.ResumeID != resumeID {
		t.Errorf("expected resume ID %s, got %s", resumeID, job.ResumeID)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", nil)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusEmbedding, "embedding"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", nil)
	job.AddError("embed batch 0 failed")
	job.AddError("store failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "embed batch 0 failed" {
		t.Errorf("expected first error %q, got %q", "embed batch 0 failed", snap.Progress.Errors[0])
	}
}

func TestJob_AddChunksEmbedded(t *testing.T) {
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", nil)
	job.AddChunksEmbedded(128)
	job.AddChunksEmbedded(40)

	snap := job.Snapshot()
	if snap.Progress.ChunksEmbedded != 168 {
		t.Errorf("expected 168 chunks embedded, got %d", snap.Progress.ChunksEmbedded)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", nil)
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	js := NewJobStore(time.Hour)
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", nil)
	js.Put(job)

	got := js.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != job.ID {
		t.Errorf("expected ID %q, got %q", job.ID, got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	js := NewJobStore(time.Hour)
	if js.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	js := NewJobStore(50 * time.Millisecond)

	expired := NewJob(uuid.New(), "Old", "old.pdf", nil)
	js.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := NewJob(uuid.New(), "New", "new.pdf", nil)
	js.Put(fresh)

	js.Cleanup()

	if js.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if js.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

type fakeEmbedder struct {
	calls      int
	batchSizes []int
	err        error
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 2, 3}
	}
	return vectors, nil
}

type fakeChunkStore struct {
	storedChunks  int
	storedVectors int
	storeErr      error
	statuses      []string
}

func (f *fakeChunkStore) StoreChunks(_ context.Context, _ uuid.UUID, chunks []chunker.Chunk, vectors [][]float32) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.storedChunks = len(chunks)
	f.storedVectors = len(vectors)
	return nil
}

func (f *fakeChunkStore) UpdateEmbeddingStatus(_ context.Context, _ uuid.UUID, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func testWorker(e DocumentEmbedder, s ChunkStore) *Worker {
	return NewWorker(e, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func manyChunks(n int) []chunker.Chunk {
	chunks := make([]chunker.Chunk, n)
	for i := range chunks {
		chunks[i] = chunker.Chunk{Text: fmt.Sprintf("chunk %d", i), ChunkIndex: i}
	}
	return chunks
}

func TestWorker_ProcessCompletes(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeChunkStore{}
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", manyChunks(3))

	testWorker(emb, st).Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected %q, got %q (errors: %v)", StatusCompleted, job.Status, job.Snapshot().Progress.Errors)
	}
	if st.storedChunks != 3 || st.storedVectors != 3 {
		t.Errorf("expected 3 chunks/vectors stored, got %d/%d", st.storedChunks, st.storedVectors)
	}
	want := []string{store.StatusProcessing, store.StatusCompleted}
	if len(st.statuses) != 2 || st.statuses[0] != want[0] || st.statuses[1] != want[1] {
		t.Errorf("expected status sequence %v, got %v", want, st.statuses)
	}
	if got := job.Snapshot().Progress.ChunksEmbedded; got != 3 {
		t.Errorf("expected 3 chunks embedded, got %d", got)
	}
}

func TestWorker_SplitsEmbeddingBatches(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeChunkStore{}
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", manyChunks(130))

	testWorker(emb, st).Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected completion, got %q", job.Status)
	}
	if emb.calls != 2 || emb.batchSizes[0] != 128 || emb.batchSizes[1] != 2 {
		t.Errorf("expected batches [128 2], got %v", emb.batchSizes)
	}
}

func TestWorker_EmbeddingFailureMarksFailed(t *testing.T) {
	emb := &fakeEmbedder{err: fmt.Errorf("api down")}
	st := &fakeChunkStore{}
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", manyChunks(2))

	testWorker(emb, st).Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected %q, got %q", StatusFailed, job.Status)
	}
	last := st.statuses[len(st.statuses)-1]
	if last != store.StatusFailed {
		t.Errorf("expected resume marked failed, got %q", last)
	}
	if st.storedChunks != 0 {
		t.Error("nothing should be stored after embed failure")
	}
}

func TestWorker_StoreFailureMarksFailed(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeChunkStore{storeErr: fmt.Errorf("db down")}
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", manyChunks(2))

	testWorker(emb, st).Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected %q, got %q", StatusFailed, job.Status)
	}
}

func TestWorker_EmptyChunksFails(t *testing.T) {
	emb := &fakeEmbedder{}
	st := &fakeChunkStore{}
	job := NewJob(uuid.New(), "Jane Doe", "jane.pdf", nil)

	testWorker(emb, st).Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected %q, got %q", StatusFailed, job.Status)
	}
	if emb.calls != 0 {
		t.Error("embedder should not be called with no chunks")
	}
}
