package api

import (
	"encoding/json"
	"net/http"
)

// handleLLMStats reports rolling latency for the Claude and Voyage clients.
func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.claude == nil || s.claude.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	payload := map[string]any{
		"claude": map[string]any{
			"model": s.claude.Model(),
			"stats": s.claude.Stats.Snapshot(),
		},
	}
	if s.embedder != nil && s.embedder.Stats != nil {
		payload["voyage"] = map[string]any{
			"model": s.embedder.Model(),
			"stats": s.embedder.Stats.Snapshot(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
