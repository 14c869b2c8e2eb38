// Package chunker splits raw resume text into section-labeled, size-bounded
// chunks ready for embedding. Section boundaries are detected from header
// lines matching a fixed keyword taxonomy; oversized sections are split into
// overlapping windows at natural text boundaries.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Default chunking limits, in bytes.
const (
	DefaultMaxChunkSize = 1500
	DefaultOverlap      = 200
)

// Config controls chunking behavior. Sizes are byte counts.
type Config struct {
	MaxChunkSize int // Upper bound on emitted chunk size.
	Overlap      int // Bytes repeated between consecutive chunks.
}

// DefaultConfig returns the production chunking limits.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: DefaultMaxChunkSize,
		Overlap:      DefaultOverlap,
	}
}

// Validate rejects configurations that could not make forward progress.
func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("chunker: max chunk size must be positive, got %d", c.MaxChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("chunker: overlap must be non-negative, got %d", c.Overlap)
	}
	return nil
}

// Chunk is one embeddable piece of a resume with its section label and
// caller-supplied metadata. ChunkIndex runs 0..N-1 across the whole resume
// in document order.
type Chunk struct {
	Text          string `json:"text"`
	SectionType   string `json:"section_type"`
	ChunkIndex    int    `json:"chunk_index"`
	CandidateName string `json:"candidate_name"`
	FileName      string `json:"file_name"`
	PositionTag   string `json:"position_tag,omitempty"`
}

// Chunker assembles section detection and sub-chunking into flat chunk lists.
type Chunker struct {
	cfg Config
}

// New creates a Chunker, failing fast on an invalid configuration.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// ChunkResume splits a resume into ordered, indexed chunks. Empty or
// all-whitespace text yields no chunks; the caller records that nothing
// needs embedding. It never fails on well-formed string input.
func (c *Chunker) ChunkResume(text, candidateName, fileName, positionTag string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []Chunk
	index := 0
	for _, span := range DetectSections(text) {
		for _, sub := range SubChunk(span.Text, c.cfg.MaxChunkSize, c.cfg.Overlap) {
			chunks = append(chunks, Chunk{
				Text:          sub,
				SectionType:   span.Type,
				ChunkIndex:    index,
				CandidateName: candidateName,
				FileName:      fileName,
				PositionTag:   positionTag,
			})
			index++
		}
	}
	return chunks
}

// SubChunk splits text into pieces of at most maxSize bytes, with
// consecutive pieces sharing up to overlap bytes of context. Text that
// already fits is returned as a single chunk, untrimmed.
//
// Cuts prefer, in order: paragraph break, sentence end, line break, word
// boundary, hard cut. When the overlap would prevent the cursor from
// advancing it is skipped for that step, so the loop always terminates —
// even on text with no whitespace at all.
func SubChunk(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if len(text) <= maxSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + maxSize
		if end >= len(text) {
			if rest := strings.TrimSpace(text[start:]); rest != "" {
				chunks = append(chunks, rest)
			}
			break
		}

		breakPos := findBreakPoint(text[start:end])
		// Never cut inside a UTF-8 sequence.
		for breakPos > 0 && !utf8.RuneStart(text[start+breakPos]) {
			breakPos--
		}
		if breakPos == 0 {
			breakPos = end - start
		}

		if piece := strings.TrimSpace(text[start : start+breakPos]); piece != "" {
			chunks = append(chunks, piece)
		}

		next := start + breakPos - overlap
		if next <= start {
			next = start + breakPos
		}
		start = next
	}

	return chunks
}
