package api

import (
	"encoding/json"
	"net/http"

	"hragent/internal/store"
)

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query         string `json:"query" validate:"required"`
	TopK          int    `json:"top_k" validate:"omitempty,min=1,max=50"`
	PositionTag   string `json:"position_tag"`
	CandidateName string `json:"candidate_name"`
}

// handleSearch runs a vector similarity search against stored resume
// chunks. Intended as a debug endpoint for the embedding pipeline.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		jsonError(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.TopK == 0 {
		req.TopK = 10
	}

	vec, err := s.embedder.EmbedQuery(r.Context(), req.Query)
	if err != nil {
		s.log.Error("query embedding failed", "error", err)
		jsonError(w, "embedding service unavailable", http.StatusBadGateway)
		return
	}

	results, err := s.store.SearchSimilar(r.Context(), vec, req.TopK, store.SearchFilter{
		PositionTag:   req.PositionTag,
		CandidateName: req.CandidateName,
	})
	if err != nil {
		s.log.Error("vector search failed", "error", err)
		jsonError(w, "vector search service unavailable", http.StatusBadGateway)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}

	s.log.Info("search complete",
		"results", len(results),
		"top_k", req.TopK,
		"position_tag", req.PositionTag)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
