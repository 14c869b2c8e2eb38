package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"hragent/internal/chunker"
)

// SearchResult is one chunk returned by similarity search. Score is cosine
// similarity in [0, 1], higher is more similar.
type SearchResult struct {
	ResumeID      uuid.UUID `json:"resume_id"`
	ChunkIndex    int       `json:"chunk_index"`
	SectionType   string    `json:"section_type"`
	Content       string    `json:"content"`
	CandidateName string    `json:"candidate_name"`
	FileName      string    `json:"file_name"`
	PositionTag   string    `json:"position_tag,omitempty"`
	Score         float64   `json:"score"`
}

// SearchFilter narrows similarity search. Empty fields match everything.
type SearchFilter struct {
	PositionTag   string
	CandidateName string
}

// StoredChunk is a chunk read back without its embedding.
type StoredChunk struct {
	ChunkIndex  int    `json:"chunk_index"`
	SectionType string `json:"section_type"`
	Content     string `json:"content"`
}

// StoreChunks inserts a resume's chunks with their embeddings in a single
// transaction. len(chunks) must equal len(vectors).
func (s *Store) StoreChunks(ctx context.Context, resumeID uuid.UUID, chunks []chunker.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("store chunks: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO resume_chunks
		(id, resume_id, chunk_index, section_type, content, candidate_name, file_name, position_tag, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, c := range chunks {
		_, err := tx.Exec(ctx, query,
			uuid.New(), resumeID, c.ChunkIndex, c.SectionType, c.Text,
			c.CandidateName, c.FileName, c.PositionTag,
			pgvector.NewVector(vectors[i]))
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

// searchQuery builds the similarity SQL and its args for the given filter.
// $1 is always the query vector and the final placeholder is the limit.
func searchQuery(filter SearchFilter) (string, int) {
	var sb strings.Builder
	sb.WriteString(`SELECT resume_id, chunk_index, section_type, content,
		candidate_name, file_name, position_tag,
		1 - (embedding <=> $1) AS score
		FROM resume_chunks
		WHERE embedding IS NOT NULL`)

	arg := 2
	if filter.PositionTag != "" {
		fmt.Fprintf(&sb, " AND position_tag = $%d", arg)
		arg++
	}
	if filter.CandidateName != "" {
		fmt.Fprintf(&sb, " AND candidate_name ILIKE $%d", arg)
		arg++
	}
	fmt.Fprintf(&sb, " ORDER BY embedding <=> $1 LIMIT $%d", arg)
	return sb.String(), arg
}

// SearchSimilar returns the topK chunks closest to queryVec by cosine
// distance, after applying the filter.
func (s *Store) SearchSimilar(ctx context.Context, queryVec []float32, topK int, filter SearchFilter) ([]SearchResult, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("search: empty query vector")
	}
	if topK <= 0 {
		topK = 5
	}

	query, _ := searchQuery(filter)
	args := []any{pgvector.NewVector(queryVec)}
	if filter.PositionTag != "" {
		args = append(args, filter.PositionTag)
	}
	if filter.CandidateName != "" {
		args = append(args, "%"+filter.CandidateName+"%")
	}
	args = append(args, topK)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ResumeID, &r.ChunkIndex, &r.SectionType,
			&r.Content, &r.CandidateName, &r.FileName, &r.PositionTag,
			&r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetChunksForResume returns a resume's chunks in index order, embeddings
// omitted.
func (s *Store) GetChunksForResume(ctx context.Context, resumeID uuid.UUID) ([]StoredChunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT chunk_index, section_type, content
		 FROM resume_chunks WHERE resume_id = $1 ORDER BY chunk_index`,
		resumeID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()

	var chunks []StoredChunk
	for rows.Next() {
		var c StoredChunk
		if err := rows.Scan(&c.ChunkIndex, &c.SectionType, &c.Content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *Store) DeleteChunksByResumeID(ctx context.Context, resumeID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM resume_chunks WHERE resume_id = $1`, resumeID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}
