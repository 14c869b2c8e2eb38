package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"hragent/internal/store"
)

const systemPrompt = `You are an expert HR recruitment assistant. Your job is to analyze resumes and find the best candidates for a given role.

You have access to a database of candidate resumes. Use your tools to:
1. Search for relevant candidates using search_resumes
2. Retrieve full resumes using get_candidate_resume
3. List available candidates using list_candidates

When analyzing candidates, provide:
- A fit score (1-10) for each candidate
- Key strengths that match the role
- Gaps or areas of concern
- An overall ranking with justification

Be thorough and specific in your analysis. Reference specific experience, skills, and qualifications from the resumes.`

// maxTurns bounds the tool-use loop so a confused model cannot spin forever.
const maxTurns = 8

// Event is one item in the agent's output stream.
type Event struct {
	Type      string          `json:"type"` // session, token, tool_call, error, done
	Content   string          `json:"content,omitempty"`
	Name      string          `json:"name,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

// toolExecutor runs a named tool with its JSON input.
type toolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage) (string, error)
}

// Agent drives the Claude tool-use loop.
type Agent struct {
	client *ClaudeClient
	tools  toolExecutor
	logger *slog.Logger
}

func New(client *ClaudeClient, tools toolExecutor, logger *slog.Logger) *Agent {
	return &Agent{client: client, tools: tools, logger: logger}
}

// Run answers userMessage given prior history, emitting events as it goes,
// and returns the assistant's full reply text. The emit callback is invoked
// synchronously; an error event is emitted before a non-nil error return.
func (a *Agent) Run(ctx context.Context, history []store.Message, userMessage string, emit func(Event)) (string, error) {
	messages := make([]anthropicMessage, 0, len(history)+1)
	for _, m := range history {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		messages = append(messages, textMessage(m.Role, m.Content))
	}
	messages = append(messages, textMessage("user", userMessage))

	a.logger.Info("agent run started",
		"history_messages", len(history),
		"prompt_tokens", CountTokens(systemPrompt)+countMessageTokens(messages))

	tools := toolDefinitions()
	var reply strings.Builder

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := a.client.CreateMessage(ctx, systemPrompt, messages, tools)
		if err != nil {
			emit(Event{Type: "error", Content: err.Error()})
			return "", fmt.Errorf("agent turn %d: %w", turn, err)
		}

		var toolResults []contentBlock
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				if block.Text != "" {
					if reply.Len() > 0 {
						reply.WriteString("\n")
					}
					reply.WriteString(block.Text)
					emit(Event{Type: "token", Content: block.Text})
				}
			case "tool_use":
				emit(Event{Type: "tool_call", Name: block.Name, Args: block.Input})
				a.logger.Info("agent tool call", "tool", block.Name, "turn", turn)

				result, err := a.tools.Execute(ctx, block.Name, block.Input)
				toolResult := contentBlock{
					Type:      "tool_result",
					ToolUseID: block.ID,
					Content:   result,
				}
				if err != nil {
					toolResult.Content = err.Error()
					toolResult.IsError = true
					a.logger.Error("agent tool failed", "tool", block.Name, "error", err)
				}
				toolResults = append(toolResults, toolResult)
			}
		}

		if resp.StopReason != "tool_use" || len(toolResults) == 0 {
			emit(Event{Type: "done"})
			return reply.String(), nil
		}

		messages = append(messages,
			anthropicMessage{Role: "assistant", Content: resp.Content},
			anthropicMessage{Role: "user", Content: toolResults})
	}

	err := fmt.Errorf("agent exceeded %d turns without finishing", maxTurns)
	emit(Event{Type: "error", Content: err.Error()})
	return reply.String(), err
}

func countMessageTokens(messages []anthropicMessage) int {
	total := 0
	for _, m := range messages {
		for _, b := range m.Content {
			if b.Text != "" {
				total += CountTokens(b.Text)
			}
		}
	}
	return total
}
