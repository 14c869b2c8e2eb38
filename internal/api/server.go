// Package api exposes the HTTP surface: resume upload and management,
// vector search, SSE chat, and service stats.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"hragent/internal/agent"
	"hragent/internal/chunker"
	"hragent/internal/config"
	"hragent/internal/embedder"
	"hragent/internal/pipeline"
	"hragent/internal/store"
)

var validate = validator.New()

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	embedder     *embedder.Client
	agent        *agent.Agent
	claude       *agent.ClaudeClient
	chunk        *chunker.Chunker
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(
	orch *pipeline.Orchestrator,
	st *store.Store,
	emb *embedder.Client,
	ag *agent.Agent,
	claude *agent.ClaudeClient,
	chunk *chunker.Chunker,
	log *slog.Logger,
	cfg config.Config,
) *Server {
	s := &Server{
		orchestrator: orch,
		store:        st,
		embedder:     emb,
		agent:        ag,
		claude:       claude,
		chunk:        chunk,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(CORS)

	r.Get("/health", s.handleHealth)

	r.Post("/api/resumes/upload", s.handleUpload)
	r.Get("/api/resumes", s.handleListResumes)
	r.Get("/api/resumes/jobs/{jobID}", s.handleJobStatus)
	r.Delete("/api/resumes/{resumeID}", s.handleDeleteResume)
	r.Get("/api/resumes/{resumeID}/download", s.handleDownloadResume)

	r.Post("/api/search", s.handleSearch)

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/sessions", s.handleListSessions)
	r.Get("/api/chat/sessions/{sessionID}", s.handleGetSession)
	r.Delete("/api/chat/sessions/{sessionID}", s.handleDeleteSession)

	r.Get("/api/stats/llm", s.handleLLMStats)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
