package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"hragent/internal/store"
)

type fakeExecutor struct {
	calls  []string
	result string
	err    error
}

func (f *fakeExecutor) Execute(_ context.Context, name string, _ json.RawMessage) (string, error) {
	f.calls = append(f.calls, name)
	return f.result, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedServer replays canned Messages API responses and captures requests.
func scriptedServer(t *testing.T, responses []string) (*httptest.Server, *[]anthropicRequest) {
	t.Helper()
	var requests []anthropicRequest
	call := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests = append(requests, req)
		if call >= len(responses) {
			t.Errorf("unexpected call %d", call)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, responses[call])
		call++
	}))
	return srv, &requests
}

func TestAgent_ToolUseLoop(t *testing.T) {
	srv, requests := scriptedServer(t, []string{
		`{"content":[
			{"type":"text","text":"Let me search."},
			{"type":"tool_use","id":"tu_1","name":"search_resumes","input":{"query":"golang"}}
		],"stop_reason":"tool_use"}`,
		`{"content":[{"type":"text","text":"Two strong candidates found."}],"stop_reason":"end_turn"}`,
	})
	defer srv.Close()

	client := NewClaudeClient("test-key", "test-model")
	client.BaseURL = srv.URL
	exec := &fakeExecutor{result: "--- Result 1 ---"}
	a := New(client, exec, discardLogger())

	var events []Event
	reply, err := a.Run(context.Background(), nil, "find go engineers", func(e Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reply != "Let me search.\nTwo strong candidates found." {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(exec.calls) != 1 || exec.calls[0] != "search_resumes" {
		t.Errorf("expected one search_resumes call, got %v", exec.calls)
	}

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	want := []string{"token", "tool_call", "token", "done"}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, types)
		}
	}

	// Second request must carry the assistant turn plus the tool result.
	second := (*requests)[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != "user" || len(last.Content) != 1 {
		t.Fatalf("unexpected final message %+v", last)
	}
	tr := last.Content[0]
	if tr.Type != "tool_result" || tr.ToolUseID != "tu_1" || tr.Content != "--- Result 1 ---" {
		t.Errorf("unexpected tool result %+v", tr)
	}
}

func TestAgent_HistoryIncluded(t *testing.T) {
	srv, requests := scriptedServer(t, []string{
		`{"content":[{"type":"text","text":"ok"}],"stop_reason":"end_turn"}`,
	})
	defer srv.Close()

	client := NewClaudeClient("test-key", "test-model")
	client.BaseURL = srv.URL
	a := New(client, &fakeExecutor{}, discardLogger())

	history := []store.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "system", Content: "should be dropped"},
	}
	if _, err := a.Run(context.Background(), history, "follow-up", func(Event) {}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	msgs := (*requests)[0].Messages
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content[0].Text != "earlier question" || msgs[1].Content[0].Text != "earlier answer" {
		t.Errorf("history not forwarded: %+v", msgs)
	}
	if msgs[2].Role != "user" || msgs[2].Content[0].Text != "follow-up" {
		t.Errorf("new message missing: %+v", msgs[2])
	}
}

func TestAgent_TurnLimit(t *testing.T) {
	toolLoop := `{"content":[{"type":"tool_use","id":"tu_x","name":"list_candidates","input":{}}],"stop_reason":"tool_use"}`
	responses := make([]string, maxTurns)
	for i := range responses {
		responses[i] = toolLoop
	}
	srv, _ := scriptedServer(t, responses)
	defer srv.Close()

	client := NewClaudeClient("test-key", "test-model")
	client.BaseURL = srv.URL
	a := New(client, &fakeExecutor{result: "listing"}, discardLogger())

	var last Event
	_, err := a.Run(context.Background(), nil, "loop forever", func(e Event) { last = e })
	if err == nil {
		t.Fatal("expected turn-limit error")
	}
	if last.Type != "error" {
		t.Errorf("expected final error event, got %+v", last)
	}
}

func TestAgent_ToolFailureReportedToModel(t *testing.T) {
	srv, requests := scriptedServer(t, []string{
		`{"content":[{"type":"tool_use","id":"tu_2","name":"search_resumes","input":{"query":"x"}}],"stop_reason":"tool_use"}`,
		`{"content":[{"type":"text","text":"sorry"}],"stop_reason":"end_turn"}`,
	})
	defer srv.Close()

	client := NewClaudeClient("test-key", "test-model")
	client.BaseURL = srv.URL
	exec := &fakeExecutor{err: fmt.Errorf("unknown tool")}
	a := New(client, exec, discardLogger())

	if _, err := a.Run(context.Background(), nil, "q", func(Event) {}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	second := (*requests)[1]
	tr := second.Messages[len(second.Messages)-1].Content[0]
	if !tr.IsError || tr.Content != "unknown tool" {
		t.Errorf("expected error tool result, got %+v", tr)
	}
}

func TestToolDefinitions(t *testing.T) {
	defs := toolDefinitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(defs))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
		if d.Description == "" {
			t.Errorf("tool %s has no description", d.Name)
		}
		if _, err := json.Marshal(d); err != nil {
			t.Errorf("tool %s schema not marshalable: %v", d.Name, err)
		}
	}
	for _, want := range []string{"search_resumes", "get_candidate_resume", "list_candidates"} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("full resume"); got != "Full Resume" {
		t.Errorf("expected %q, got %q", "Full Resume", got)
	}
	if got := titleCase("experience"); got != "Experience" {
		t.Errorf("expected %q, got %q", "Experience", got)
	}
}
