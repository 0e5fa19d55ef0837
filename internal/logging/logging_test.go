package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestWithFields_AttachesToContext(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "log-*.json")
	require.NoError(t, err)
	defer tmp.Close()

	Init(slog.LevelDebug, tmp)

	ctx := WithFields(context.Background(), "tenant_id", "acme-corp", "task_id", "task-1")
	FromContext(ctx).Info("hello")

	data, err := os.ReadFile(tmp.Name())
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lastLine(data), &record))
	assert.Equal(t, "acme-corp", record["tenant_id"])
	assert.Equal(t, "task-1", record["task_id"])
	assert.Equal(t, "hello", record["msg"])
}

func TestLogger_InitializesLazily(t *testing.T) {
	defaultLogger = nil
	assert.NotNil(t, Logger())
}

func lastLine(data []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	return lines[len(lines)-1]
}
