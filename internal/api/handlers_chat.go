package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hragent/internal/agent"
	"hragent/internal/store"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message     string `json:"message" validate:"required"`
	SessionID   string `json:"session_id"`
	PositionTag string `json:"position_tag"`
}

// handleChat answers a recruiter message over SSE. Events: session, token,
// tool_call, error, done. The full turn is persisted to the session once
// the agent finishes.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		jsonError(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	var session *store.ChatSession
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			jsonError(w, "invalid session_id", http.StatusBadRequest)
			return
		}
		session, err = s.store.GetSession(r.Context(), id)
		if err == store.ErrNotFound {
			jsonError(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.log.Error("session lookup failed", "session_id", id, "error", err)
			jsonError(w, "failed to load session", http.StatusInternalServerError)
			return
		}
	} else {
		var err error
		session, err = s.store.CreateSession(r.Context(), req.PositionTag)
		if err != nil {
			s.log.Error("session create failed", "error", err)
			jsonError(w, "failed to create session", http.StatusInternalServerError)
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sessionID := session.ID.String()
	writeSSE(w, flusher, agent.Event{Type: "session", SessionID: sessionID})

	reply, err := s.agent.Run(r.Context(), session.Messages, req.Message, func(e agent.Event) {
		if e.Type == "done" {
			e.SessionID = sessionID
		}
		writeSSE(w, flusher, e)
	})
	if err != nil {
		// The error event is already on the wire; close the stream cleanly.
		s.log.Error("chat agent failed", "session_id", sessionID, "error", err)
		writeSSE(w, flusher, agent.Event{Type: "done", SessionID: sessionID})
	}

	if reply == "" && err != nil {
		return
	}
	persistErr := s.store.AppendMessages(r.Context(), session.ID,
		store.Message{Role: "user", Content: req.Message},
		store.Message{Role: "assistant", Content: reply},
	)
	if persistErr != nil {
		s.log.Error("failed to persist conversation", "session_id", sessionID, "error", persistErr)
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event agent.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
	flusher.Flush()
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.log.Error("list sessions failed", "error", err)
		jsonError(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*store.ChatSession{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, "invalid session_id", http.StatusBadRequest)
		return
	}
	session, err := s.store.GetSession(r.Context(), id)
	if err == store.ErrNotFound {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("session lookup failed", "session_id", id, "error", err)
		jsonError(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, "invalid session_id", http.StatusBadRequest)
		return
	}
	err = s.store.DeleteSession(r.Context(), id)
	if err == store.ErrNotFound {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("session delete failed", "session_id", id, "error", err)
		jsonError(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"deleted": true})
}
