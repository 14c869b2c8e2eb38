package agent

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// CountTokens estimates the token count of text. The cl100k_base encoding
// is an approximation for Claude but close enough for budget logging.
// Returns 0 if the encoding cannot be loaded.
func CountTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return 0
	}
	return len(encoding.Encode(text, nil, nil))
}
