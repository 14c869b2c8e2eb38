package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hragent/internal/extract"
	"hragent/internal/parser"
	"hragent/internal/pipeline"
	"hragent/internal/store"
)

type uploadResult struct {
	ID              uuid.UUID `json:"id"`
	CandidateName   string    `json:"candidate_name"`
	FileName        string    `json:"file_name"`
	SectionsCount   int       `json:"sections_count"`
	PositionTag     string    `json:"position_tag,omitempty"`
	EmbeddingStatus string    `json:"embedding_status"`
	JobID           string    `json:"job_id,omitempty"`
	PollURL         string    `json:"poll_url,omitempty"`
}

type uploadError struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// handleUpload accepts one or more resume files, parses and chunks each one
// synchronously, then queues embedding as a background job.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	positionTag := r.FormValue("position_tag")

	if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
		jsonError(w, "uploads directory unavailable", http.StatusInternalServerError)
		return
	}

	var uploaded []uploadResult
	var errors []uploadError

	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		open := func() (io.ReadCloser, error) { return fh.Open() }
		result, err := s.processUpload(r, open, filename, positionTag)
		if err != nil {
			s.log.Error("upload failed", "file", filename, "error", err)
			errors = append(errors, uploadError{FileName: filename, Error: err.Error()})
			continue
		}
		s.log.Info("resume uploaded",
			"file", filename,
			"candidate", result.CandidateName,
			"chunks", result.SectionsCount)
		uploaded = append(uploaded, *result)
	}

	if uploaded == nil {
		uploaded = []uploadResult{}
	}
	if errors == nil {
		errors = []uploadError{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"uploaded": uploaded,
		"errors":   errors,
	})
}

func (s *Server) processUpload(r *http.Request, open func() (io.ReadCloser, error), filename, positionTag string) (*uploadResult, error) {
	if !parser.IsSupportedExtension(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	f, err := open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}
	text, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text could be extracted from the file")
	}

	info := extract.CandidateInfoFromText(text)
	chunks := s.chunk.ChunkResume(text, info.Name, filename, positionTag)

	status := store.StatusPending
	if len(chunks) > 0 {
		status = store.StatusProcessing
	}

	resume := &store.Resume{
		CandidateName:   info.Name,
		Email:           info.Email,
		Phone:           info.Phone,
		FileName:        filename,
		RawText:         text,
		PositionTag:     positionTag,
		SectionsCount:   len(chunks),
		EmbeddingStatus: status,
	}
	if err := s.store.InsertResume(r.Context(), resume); err != nil {
		return nil, err
	}

	// Keep the original file so it can be downloaded later.
	filePath := filepath.Join(s.cfg.UploadsDir, fmt.Sprintf("%s_%s", resume.ID, filename))
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		s.log.Warn("failed to save original file", "path", filePath, "error", err)
	} else if err := s.store.UpdateFilePath(r.Context(), resume.ID, filePath); err != nil {
		s.log.Warn("failed to record file path", "resume_id", resume.ID, "error", err)
	}

	result := &uploadResult{
		ID:              resume.ID,
		CandidateName:   resume.CandidateName,
		FileName:        resume.FileName,
		SectionsCount:   resume.SectionsCount,
		PositionTag:     resume.PositionTag,
		EmbeddingStatus: resume.EmbeddingStatus,
	}

	if len(chunks) > 0 {
		job := pipeline.NewJob(resume.ID, resume.CandidateName, filename, chunks)
		if err := s.orchestrator.Submit(job); err != nil {
			s.log.Error("job submit failed", "resume_id", resume.ID, "error", err)
			if statusErr := s.store.UpdateEmbeddingStatus(r.Context(), resume.ID, store.StatusFailed); statusErr != nil {
				s.log.Warn("status update failed", "resume_id", resume.ID, "error", statusErr)
			}
			result.EmbeddingStatus = store.StatusFailed
			return result, nil
		}
		result.JobID = job.ID
		result.PollURL = fmt.Sprintf("/api/resumes/jobs/%s", job.ID)
	}
	return result, nil
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	resumes, err := s.store.ListResumes(r.Context(), r.URL.Query().Get("position_tag"))
	if err != nil {
		s.log.Error("list resumes failed", "error", err)
		jsonError(w, "failed to list resumes", http.StatusInternalServerError)
		return
	}
	if resumes == nil {
		resumes = []*store.Resume{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resumes)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "resumeID"))
	if err != nil {
		jsonError(w, "invalid resume ID format", http.StatusBadRequest)
		return
	}

	resume, err := s.store.GetResume(r.Context(), id)
	if err == store.ErrNotFound {
		jsonError(w, "resume not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("resume lookup failed", "resume_id", id, "error", err)
		jsonError(w, "failed to delete resume", http.StatusInternalServerError)
		return
	}

	if err := s.store.DeleteResume(r.Context(), id); err != nil {
		s.log.Error("resume delete failed", "resume_id", id, "error", err)
		jsonError(w, "failed to delete resume", http.StatusInternalServerError)
		return
	}
	if resume.FilePath != "" {
		if err := os.Remove(resume.FilePath); err != nil && !os.IsNotExist(err) {
			s.log.Warn("failed to remove file", "path", resume.FilePath, "error", err)
		}
	}

	s.log.Info("resume deleted", "resume_id", id)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"deleted": true})
}

var mediaTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
}

func (s *Server) handleDownloadResume(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "resumeID"))
	if err != nil {
		jsonError(w, "invalid resume ID format", http.StatusBadRequest)
		return
	}

	resume, err := s.store.GetResume(r.Context(), id)
	if err == store.ErrNotFound {
		jsonError(w, "resume not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("resume lookup failed", "resume_id", id, "error", err)
		jsonError(w, "failed to load resume", http.StatusInternalServerError)
		return
	}
	if resume.FilePath == "" {
		jsonError(w, "resume file not found on disk", http.StatusNotFound)
		return
	}
	if _, err := os.Stat(resume.FilePath); err != nil {
		jsonError(w, "resume file not found on disk", http.StatusNotFound)
		return
	}

	ext := strings.ToLower(filepath.Ext(resume.FileName))
	mediaType := mediaTypes[ext]
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resume.FileName))
	http.ServeFile(w, r, resume.FilePath)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
