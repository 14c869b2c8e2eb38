// Package store persists resumes, embedded chunks, and chat sessions in
// Postgres. Vector similarity search uses the pgvector extension with
// cosine distance.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"hragent/internal/embedder"
)

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Init creates the schema if it does not exist. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS resumes (
		id UUID PRIMARY KEY,
		candidate_name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		file_name TEXT NOT NULL,
		file_path TEXT,
		raw_text TEXT,
		position_tag TEXT,
		sections_count INT NOT NULL DEFAULT 0,
		embedding_status TEXT NOT NULL DEFAULT 'pending',
		uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_resumes_position_tag ON resumes(position_tag);

	CREATE TABLE IF NOT EXISTS resume_chunks (
		id UUID PRIMARY KEY,
		resume_id UUID NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
		chunk_index INT NOT NULL,
		section_type TEXT NOT NULL,
		content TEXT NOT NULL,
		candidate_name TEXT NOT NULL,
		file_name TEXT NOT NULL,
		position_tag TEXT,
		embedding vector(%d)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON resume_chunks
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
	CREATE INDEX IF NOT EXISTS idx_chunks_resume_id ON resume_chunks(resume_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_position_tag ON resume_chunks(position_tag);
	CREATE INDEX IF NOT EXISTS idx_chunks_candidate_name ON resume_chunks(candidate_name);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id UUID PRIMARY KEY,
		messages JSONB NOT NULL DEFAULT '[]'::jsonb,
		position_tag TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	`, embedder.Dimension)

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
