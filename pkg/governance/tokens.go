package governance

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Message is the minimal shape a pre-call token estimate needs: role plus
// rendered text content. Callers adapt their richer message types to
// this before calling EstimateTokens.
type Message struct {
	Role    string
	Content string
}

// defaultEncoding is the tiktoken-go encoding used for estimation when a
// model-specific one can't be resolved. cl100k_base covers the GPT-3.5/4
// family and is a reasonable proxy for non-OpenAI models too.
const defaultEncoding = "cl100k_base"

var (
	encodingCacheMu sync.Mutex
	encodingCache   = map[string]*tiktoken.Tiktoken{}
)

func encodingFor(model string) (*tiktoken.Tiktoken, error) {
	encodingCacheMu.Lock()
	defer encodingCacheMu.Unlock()

	if enc, ok := encodingCache[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, err
		}
	}
	encodingCache[model] = enc
	return enc, nil
}

// EstimateTokens returns the estimated token count of content for model,
// falling back to a character-count heuristic (about 4 characters per
// token) if the tokenizer can't be
// loaded (e.g. the BPE vocabulary files are unavailable offline).
func EstimateTokens(model, content string) int64 {
	enc, err := encodingFor(model)
	if err != nil {
		return estimateTokensHeuristic(content)
	}
	return int64(len(enc.Encode(content, nil, nil)))
}

// estimateTokensHeuristic is the degraded-mode estimate: roughly 4
// characters per token, the commonly cited rule of thumb for English
// text, used only when tiktoken-go's encoder can't be loaded.
func estimateTokensHeuristic(content string) int64 {
	if len(content) == 0 {
		return 0
	}
	n := int64(len(content)) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// EstimateMessagesTokens sums EstimateTokens across every message, per
// spec.md §4.3's pre-call estimate formula.
func EstimateMessagesTokens(model string, messages []Message) int64 {
	var total int64
	for _, m := range messages {
		total += EstimateTokens(model, m.Content)
	}
	return total
}
