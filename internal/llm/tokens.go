package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens returns the cl100k token count of text. When the encoding
// cannot be loaded it falls back to roughly four characters per token.
func EstimateTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			zap.S().Debugf("tiktoken unavailable, estimating by length: %v", err)
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return estimateByChars(text)
	}
	return len(encoding.Encode(text, nil, nil))
}

func estimateByChars(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
