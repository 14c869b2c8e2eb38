package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsBecomeStandaloneLines(t *testing.T) {
	input := `# Jane Doe

jane@example.com

## Experience

Built services at Acme.

## Skills

Go, SQL.
`
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "resume.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Jane Doe", "Experience", "Built services at Acme.", "Skills", "Go, SQL."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "#") {
		t.Errorf("expected heading markers stripped, got:\n%s", text)
	}

	// Headings must sit alone on their line so the section detector matches.
	foundHeaderLine := false
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "Experience" {
			foundHeaderLine = true
		}
	}
	if !foundHeaderLine {
		t.Errorf("expected %q alone on a line, got:\n%s", "Experience", text)
	}
}

func TestMarkdownParser_PlainParagraphs(t *testing.T) {
	input := "Just a paragraph.\n\nAnd another one."
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Just a paragraph.\n\nAnd another one."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestMarkdownParser_InlineFormattingEmittedOnce(t *testing.T) {
	input := "Built **services** at _Acme_ using `Go`."
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "resume.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Built services at Acme using Go."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestMarkdownParser_ListItemsKeptSeparate(t *testing.T) {
	input := "## Skills\n\n- Go\n- SQL\n"
	p := &MarkdownParser{}
	text, err := p.Parse(strings.NewReader(input), "resume.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text, "GoGo") || strings.Contains(text, "SQLSQL") {
		t.Errorf("list item text duplicated:\n%s", text)
	}
	if strings.Contains(text, "GoSQL") {
		t.Errorf("expected list items on separate lines, got:\n%s", text)
	}
}

func TestHTMLParser_ExtractsHeadingsAndBlocks(t *testing.T) {
	input := `<html><head><title>cv</title><style>p{color:red}</style></head>
<body><h1>Jane Doe</h1><p>jane@example.com</p>
<h2>Experience</h2><p>Built services.</p>
<script>alert(1)</script></body></html>`

	p := &HTMLParser{}
	text, err := p.Parse(strings.NewReader(input), "resume.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Jane Doe", "jane@example.com", "Experience", "Built services."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color") {
		t.Errorf("expected script/style skipped, got:\n%s", text)
	}
}
