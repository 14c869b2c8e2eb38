package parser

import (
	"fmt"
	"io"
)

// TextParser handles plain text resumes.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return cleanWhitespace(string(data)), nil
}
