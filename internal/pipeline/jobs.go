package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"hragent/internal/chunker"
)

// JobStatus represents the state of an embedding job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusEmbedding JobStatus = "embedding"
	StatusStoring   JobStatus = "storing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the embedding of a single resume's chunks.
type Job struct {
	mu sync.Mutex

	ID            string    `json:"job_id"`
	ResumeID      uuid.UUID `json:"resume_id"`
	CandidateName string    `json:"candidate_name"`
	FileName      string    `json:"file_name"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	chunks []chunker.Chunk
	errors []string
}

// Progress tracks embedding progress.
type Progress struct {
	TotalChunks    int      `json:"total_chunks"`
	ChunksEmbedded int      `json:"chunks_embedded"`
	Errors         []string `json:"errors"`
}

// NewJob creates a queued job for a resume's chunks.
func NewJob(resumeID uuid.UUID, candidateName, fileName string, chunks []chunker.Chunk) *Job {
	now := time.Now()
	return &Job{
		ID:            uuid.New().String(),
		ResumeID:      resumeID,
		CandidateName: candidateName,
		FileName:      fileName,
		Status:        StatusQueued,
		Phase:         "queued",
		Progress:      Progress{TotalChunks: len(chunks)},
		CreatedAt:     now,
		UpdatedAt:     now,
		chunks:        chunks,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddChunksEmbedded records progress through the chunk batches.
func (j *Job) AddChunksEmbedded(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksEmbedded += n
	j.UpdatedAt = time.Now()
}

// Chunks returns the chunks awaiting embedding.
func (j *Job) Chunks() []chunker.Chunk {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.chunks
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string    `json:"job_id"`
	ResumeID      uuid.UUID `json:"resume_id"`
	CandidateName string    `json:"candidate_name"`
	FileName      string    `json:"file_name"`
	Status        JobStatus `json:"status"`
	Phase         string    `json:"phase"`
	Progress      Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:            j.ID,
		ResumeID:      j.ResumeID,
		CandidateName: j.CandidateName,
		FileName:      j.FileName,
		Status:        j.Status,
		Phase:         j.Phase,
		Progress: Progress{
			TotalChunks:    j.Progress.TotalChunks,
			ChunksEmbedded: j.Progress.ChunksEmbedded,
			Errors:         errs,
		},
	}
}
