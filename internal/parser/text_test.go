package parser

import (
	"strings"
	"testing"
)

func TestTextParser_CleansWhitespace(t *testing.T) {
	input := "Jane Doe   \njane@example.com\t\n\n\n\nExperience\nDid things.  \n"
	p := &TextParser{}
	text, err := p.Parse(strings.NewReader(input), "resume.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Jane Doe\njane@example.com\n\nExperience\nDid things."
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	text, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty output, got %q", text)
	}
}

func TestCleanWhitespace_PreservesParagraphBreaks(t *testing.T) {
	input := "para one\n\npara two\n\n\n\n\npara three"
	got := cleanWhitespace(input)
	want := "para one\n\npara two\n\npara three"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCleanWhitespace_StripsCarriageReturns(t *testing.T) {
	input := "line one\r\nline two\r\n"
	got := cleanWhitespace(input)
	want := "line one\nline two"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestForFile_Dispatch(t *testing.T) {
	cases := []struct {
		filename  string
		supported bool
	}{
		{"resume.pdf", true},
		{"resume.PDF", true},
		{"resume.docx", true},
		{"resume.txt", true},
		{"resume.md", true},
		{"resume.html", true},
		{"resume.exe", false},
		{"resume", false},
	}

	for _, tc := range cases {
		if got := IsSupportedExtension(tc.filename); got != tc.supported {
			t.Errorf("IsSupportedExtension(%q): expected %v, got %v", tc.filename, tc.supported, got)
		}
		_, err := ForFile(tc.filename)
		if tc.supported && err != nil {
			t.Errorf("ForFile(%q): unexpected error: %v", tc.filename, err)
		}
		if !tc.supported && err == nil {
			t.Errorf("ForFile(%q): expected error", tc.filename)
		}
	}
}
