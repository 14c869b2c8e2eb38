package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown resumes using goldmark. Headings are kept
// as standalone lines (without the # markers) so the section detector can
// match them.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if title := strings.TrimSpace(string(node.Text(src))); title != "" {
				blocks = append(blocks, title)
			}
		default:
			if t := extractText(n, src); t != "" {
				blocks = append(blocks, t)
			}
		}
	}

	return cleanWhitespace(strings.Join(blocks, "\n\n")), nil
}

// extractText gets the text content of a goldmark AST node. Block nodes
// with inline children (paragraphs) are read via the child walk; raw
// Lines() are used only for leaf blocks such as fenced code, so the same
// bytes are never emitted twice.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if s := extractText(c, src); s != "" {
			buf.WriteString(s)
			if c.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
