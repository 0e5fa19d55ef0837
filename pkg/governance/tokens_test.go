package governance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens_NonEmpty(t *testing.T) {
	n := EstimateTokens("gpt-4o", "hello world")
	assert.Greater(t, n, int64(0))
}

func TestEstimateTokens_Empty(t *testing.T) {
	n := EstimateTokens("gpt-4o", "")
	assert.Zero(t, n)
}

func TestEstimateMessagesTokens_Sums(t *testing.T) {
	msgs := []Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "What is the capital of France?"},
	}
	total := EstimateMessagesTokens("gpt-4o", msgs)
	single := EstimateTokens("gpt-4o", msgs[0].Content) + EstimateTokens("gpt-4o", msgs[1].Content)
	assert.Equal(t, single, total)
}

func TestEstimateTokensHeuristic(t *testing.T) {
	assert.Zero(t, estimateTokensHeuristic(""))
	assert.Equal(t, int64(1), estimateTokensHeuristic("abc"))
	assert.Equal(t, int64(2), estimateTokensHeuristic("12345678"))
}
