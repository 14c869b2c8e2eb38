package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"hragent/internal/store"
)

// Embedder is the query-embedding capability the tools need.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Tools executes the agent's retrieval tools against the store.
type Tools struct {
	store    *store.Store
	embedder Embedder
	logger   *slog.Logger
}

func NewTools(s *store.Store, e Embedder, logger *slog.Logger) *Tools {
	return &Tools{store: s, embedder: e, logger: logger}
}

func toolDefinitions() []toolDef {
	return []toolDef{
		{
			Name: "search_resumes",
			Description: "Search resume chunks by semantic similarity to a query. " +
				"Use this to find candidates or resume sections relevant to specific " +
				"skills, experiences, or qualifications.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Natural-language search query describing the desired skills, experience, or qualifications.",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": "Maximum number of matching chunks to return (default 10).",
					},
					"position_tag": map[string]any{
						"type":        "string",
						"description": "Optional position tag to narrow results to resumes uploaded under a specific job posting.",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name: "get_candidate_resume",
			Description: "Retrieve and reconstruct the full resume for a specific " +
				"candidate, organised by section. Use this to review a candidate's " +
				"complete resume.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"candidate_name": map[string]any{
						"type":        "string",
						"description": "The exact name of the candidate whose resume should be retrieved.",
					},
				},
				"required": []string{"candidate_name"},
			},
		},
		{
			Name: "list_candidates",
			Description: "List all candidates in the system with their resume " +
				"metadata, optionally filtered by position tag. Use this to discover " +
				"which candidates are available.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"position_tag": map[string]any{
						"type":        "string",
						"description": "Optional position tag to filter candidates by a specific job posting.",
					},
				},
			},
		},
	}
}

// Execute runs the named tool. Failures come back as tool-result text so the
// model can recover; only unknown tool names are an error.
func (t *Tools) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	switch name {
	case "search_resumes":
		var args struct {
			Query       string `json:"query"`
			TopK        int    `json:"top_k"`
			PositionTag string `json:"position_tag"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("decode search_resumes input: %w", err)
		}
		return t.searchResumes(ctx, args.Query, args.TopK, args.PositionTag), nil
	case "get_candidate_resume":
		var args struct {
			CandidateName string `json:"candidate_name"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("decode get_candidate_resume input: %w", err)
		}
		return t.getCandidateResume(ctx, args.CandidateName), nil
	case "list_candidates":
		var args struct {
			PositionTag string `json:"position_tag"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("decode list_candidates input: %w", err)
		}
		return t.listCandidates(ctx, args.PositionTag), nil
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

const snippetLimit = 500

func (t *Tools) searchResumes(ctx context.Context, query string, topK int, positionTag string) string {
	if topK <= 0 {
		topK = 10
	}
	vec, err := t.embedder.EmbedQuery(ctx, query)
	if err != nil {
		t.logger.Error("search_resumes embed failed", "error", err)
		return fmt.Sprintf("Error performing resume search: %v", err)
	}
	results, err := t.store.SearchSimilar(ctx, vec, topK, store.SearchFilter{PositionTag: positionTag})
	if err != nil {
		t.logger.Error("search_resumes query failed", "error", err)
		return fmt.Sprintf("Error performing resume search: %v", err)
	}
	if len(results) == 0 {
		return "No matching resume chunks found for the given query."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d matching resume chunk(s):\n\n", len(results))
	for i, r := range results {
		snippet := r.Content
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit] + "..."
		}
		fmt.Fprintf(&sb, "--- Result %d ---\n", i+1)
		fmt.Fprintf(&sb, "Candidate: %s\n", r.CandidateName)
		fmt.Fprintf(&sb, "Section:   %s\n", r.SectionType)
		fmt.Fprintf(&sb, "Score:     %.4f\n", r.Score)
		fmt.Fprintf(&sb, "Text:\n%s\n\n", snippet)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (t *Tools) getCandidateResume(ctx context.Context, candidateName string) string {
	resume, err := t.store.FindResumeByName(ctx, candidateName)
	if err == store.ErrNotFound {
		return fmt.Sprintf("No resume found for candidate '%s'. "+
			"Please check the name spelling or use the list_candidates tool "+
			"to see available candidates.", candidateName)
	}
	if err != nil {
		t.logger.Error("get_candidate_resume lookup failed", "error", err)
		return fmt.Sprintf("Error looking up candidate: %v", err)
	}

	chunks, err := t.store.GetChunksForResume(ctx, resume.ID)
	if err != nil {
		t.logger.Error("get_candidate_resume chunks failed", "resume_id", resume.ID, "error", err)
		return fmt.Sprintf("Error retrieving resume chunks: %v", err)
	}
	if len(chunks) == 0 {
		return fmt.Sprintf("Resume record exists for '%s' but no chunks "+
			"are stored yet (embedding may still be processing).", candidateName)
	}

	// Group chunk texts by section, sections in first-appearance order.
	var order []string
	sections := map[string][]string{}
	for _, c := range chunks {
		if _, seen := sections[c.SectionType]; !seen {
			order = append(order, c.SectionType)
		}
		sections[c.SectionType] = append(sections[c.SectionType], c.Content)
	}

	position := resume.PositionTag
	if position == "" {
		position = "N/A"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Resume for: %s\n", resume.CandidateName)
	fmt.Fprintf(&sb, "File:       %s\n", resume.FileName)
	fmt.Fprintf(&sb, "Position:   %s\n", position)
	fmt.Fprintf(&sb, "Uploaded:   %s\n", resume.UploadedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	for _, sectionType := range order {
		title := titleCase(strings.ReplaceAll(sectionType, "_", " "))
		fmt.Fprintf(&sb, "\n## %s\n", title)
		sb.WriteString(strings.Join(sections[sectionType], "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (t *Tools) listCandidates(ctx context.Context, positionTag string) string {
	resumes, err := t.store.ListResumes(ctx, positionTag)
	if err != nil {
		t.logger.Error("list_candidates failed", "error", err)
		return fmt.Sprintf("Error listing candidates: %v", err)
	}
	if len(resumes) == 0 {
		if positionTag != "" {
			return fmt.Sprintf("No candidates found for position '%s'.", positionTag)
		}
		return "No candidates found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d candidate(s):\n\n", len(resumes))
	for _, r := range resumes {
		position := r.PositionTag
		if position == "" {
			position = "N/A"
		}
		fmt.Fprintf(&sb, "- %s\n", r.CandidateName)
		fmt.Fprintf(&sb, "    File:       %s\n", r.FileName)
		fmt.Fprintf(&sb, "    Uploaded:   %s\n", r.UploadedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&sb, "    Position:   %s\n", position)
		fmt.Fprintf(&sb, "    Embeddings: %s\n", r.EmbeddingStatus)
	}
	return strings.TrimRight(sb.String(), "\n")
}
