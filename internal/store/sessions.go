package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Message is one turn of a chat conversation as persisted in a session.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatSession struct {
	ID          uuid.UUID `json:"id"`
	Messages    []Message `json:"messages"`
	PositionTag string    `json:"position_tag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Store) CreateSession(ctx context.Context, positionTag string) (*ChatSession, error) {
	now := time.Now().UTC()
	session := &ChatSession{
		ID:          uuid.New(),
		Messages:    []Message{},
		PositionTag: positionTag,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, messages, position_tag, created_at, updated_at)
		 VALUES ($1, '[]'::jsonb, $2, $3, $4)`,
		session.ID, session.PositionTag, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*ChatSession, error) {
	var raw []byte
	session := &ChatSession{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, messages, position_tag, created_at, updated_at FROM chat_sessions WHERE id = $1`,
		id).Scan(&session.ID, &raw, &session.PositionTag, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if err := json.Unmarshal(raw, &session.Messages); err != nil {
		return nil, fmt.Errorf("decode session messages: %w", err)
	}
	return session, nil
}

// ListSessions returns sessions most recently updated first, without
// message bodies.
func (s *Store) ListSessions(ctx context.Context) ([]*ChatSession, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, position_tag, created_at, updated_at FROM chat_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*ChatSession
	for rows.Next() {
		session := &ChatSession{}
		if err := rows.Scan(&session.ID, &session.PositionTag, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessages atomically appends messages to a session's history and
// bumps updated_at.
func (s *Store) AppendMessages(ctx context.Context, id uuid.UUID, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE chat_sessions
		 SET messages = messages || $2::jsonb, updated_at = $3
		 WHERE id = $1`,
		id, encoded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
