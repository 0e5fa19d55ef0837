package reasoning

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_JSONRoundTrip_ToolCall(t *testing.T) {
	c := New("task-1", "agent-1", "tenant-1")
	step := c.AppendToolCall("corr-1", "search", "search", map[string]any{"q": "go"}, Visibility{Level: VisibilityFull})

	data, err := json.Marshal(step)
	require.NoError(t, err)

	var decoded Step
	require.NoError(t, json.Unmarshal(data, &decoded))

	payload, ok := decoded.Payload.(ToolCallPayload)
	require.True(t, ok, "payload should decode back to ToolCallPayload, got %T", decoded.Payload)
	assert.Equal(t, "search", payload.ToolName)
	assert.Equal(t, "corr-1", payload.CorrelationID)
}

func TestStep_JSONRoundTrip_ToolResult(t *testing.T) {
	c := New("task-1", "agent-1", "tenant-1")
	c.AppendToolCall("corr-1", "search", "search", nil, Visibility{Level: VisibilityFull})
	step, err := c.AppendToolResult("corr-1", true, map[string]any{"hits": float64(3)}, "", 42, 0, 0, Visibility{Level: VisibilityFull})
	require.NoError(t, err)

	data, err := json.Marshal(step)
	require.NoError(t, err)

	var decoded Step
	require.NoError(t, json.Unmarshal(data, &decoded))

	payload, ok := decoded.Payload.(ToolResultPayload)
	require.True(t, ok)
	assert.True(t, payload.Success)
	assert.Equal(t, int64(42), payload.DurationMS)
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	c := New("task-1", "agent-1", "tenant-1")
	c.AppendThinking("pondering", nil, Visibility{Level: VisibilityFull})
	snap := c.ToSnapshot()

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded.Steps, 1)
	payload, ok := decoded.Steps[0].Payload.(ThinkingPayload)
	require.True(t, ok)
	assert.Equal(t, "pondering", payload.Content)
}
