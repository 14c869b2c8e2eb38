package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Embedding status lifecycle for a resume. A resume starts as pending,
// moves to processing when a worker picks it up, and ends completed or
// failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type Resume struct {
	ID              uuid.UUID `json:"id"`
	CandidateName   string    `json:"candidate_name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	FileName        string    `json:"file_name"`
	FilePath        string    `json:"-"`
	RawText         string    `json:"-"`
	PositionTag     string    `json:"position_tag,omitempty"`
	SectionsCount   int       `json:"sections_count"`
	EmbeddingStatus string    `json:"embedding_status"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

func (s *Store) InsertResume(ctx context.Context, r *Resume) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.EmbeddingStatus == "" {
		r.EmbeddingStatus = StatusPending
	}
	if r.UploadedAt.IsZero() {
		r.UploadedAt = time.Now().UTC()
	}

	query := `INSERT INTO resumes
		(id, candidate_name, email, phone, file_name, file_path, raw_text, position_tag, sections_count, embedding_status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.pool.Exec(ctx, query,
		r.ID, r.CandidateName, r.Email, r.Phone, r.FileName, r.FilePath,
		r.RawText, r.PositionTag, r.SectionsCount, r.EmbeddingStatus, r.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert resume: %w", err)
	}
	return nil
}

func (s *Store) GetResume(ctx context.Context, id uuid.UUID) (*Resume, error) {
	query := `SELECT id, candidate_name, email, phone, file_name, file_path,
		position_tag, sections_count, embedding_status, uploaded_at
		FROM resumes WHERE id = $1`
	r := &Resume{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.CandidateName, &r.Email, &r.Phone, &r.FileName, &r.FilePath,
		&r.PositionTag, &r.SectionsCount, &r.EmbeddingStatus, &r.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return r, nil
}

// ListResumes returns resumes newest first, optionally filtered by
// position tag.
func (s *Store) ListResumes(ctx context.Context, positionTag string) ([]*Resume, error) {
	query := `SELECT id, candidate_name, email, phone, file_name, file_path,
		position_tag, sections_count, embedding_status, uploaded_at
		FROM resumes`
	args := []any{}
	if positionTag != "" {
		query += ` WHERE position_tag = $1`
		args = append(args, positionTag)
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*Resume
	for rows.Next() {
		r := &Resume{}
		if err := rows.Scan(&r.ID, &r.CandidateName, &r.Email, &r.Phone,
			&r.FileName, &r.FilePath, &r.PositionTag, &r.SectionsCount,
			&r.EmbeddingStatus, &r.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, r)
	}
	return resumes, rows.Err()
}

// FindResumeByName looks up a resume by exact candidate name,
// case-insensitive. With duplicate names the most recent upload wins.
func (s *Store) FindResumeByName(ctx context.Context, name string) (*Resume, error) {
	query := `SELECT id, candidate_name, email, phone, file_name, file_path,
		position_tag, sections_count, embedding_status, uploaded_at
		FROM resumes WHERE LOWER(candidate_name) = LOWER($1)
		ORDER BY uploaded_at DESC LIMIT 1`
	r := &Resume{}
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&r.ID, &r.CandidateName, &r.Email, &r.Phone, &r.FileName, &r.FilePath,
		&r.PositionTag, &r.SectionsCount, &r.EmbeddingStatus, &r.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find resume by name: %w", err)
	}
	return r, nil
}

// DeleteResume removes a resume; its chunks cascade.
func (s *Store) DeleteResume(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateEmbeddingStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE resumes SET embedding_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update embedding status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateFilePath(ctx context.Context, id uuid.UUID, path string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE resumes SET file_path = $2 WHERE id = $1`, id, path)
	if err != nil {
		return fmt.Errorf("update file path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
