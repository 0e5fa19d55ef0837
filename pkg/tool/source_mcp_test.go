package tool

import (
	"encoding/json"
	"testing"

	sdkmcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mcpToolJSON is the MCP protocol's own wire shape for tools/list results;
// decoding through it (rather than constructing sdkmcp.Tool field-by-field)
// exercises mcpDefinition against the same bytes a real MCP server sends.
const mcpToolJSON = `{
	"name": "web_search",
	"description": "Searches the web",
	"inputSchema": {
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "search query"},
			"max_hits": {"type": "integer", "description": "result cap"}
		},
		"required": ["query"]
	}
}`

func TestMCPDefinition_ParsesInputSchema(t *testing.T) {
	var remote sdkmcp.Tool
	require.NoError(t, json.Unmarshal([]byte(mcpToolJSON), &remote))

	def := mcpDefinition("search-server", remote, 5000)

	assert.Equal(t, "web_search", def.Name)
	assert.Equal(t, TypeAPI, def.Type)
	assert.Equal(t, int64(5000), def.TimeoutMS)
	assert.Contains(t, def.Tags, "mcp:search-server")
	require.Len(t, def.Parameters, 2)

	byName := make(map[string]Parameter, len(def.Parameters))
	for _, p := range def.Parameters {
		byName[p.Name] = p
	}

	query, ok := byName["query"]
	require.True(t, ok)
	assert.Equal(t, ParamString, query.Type)
	assert.True(t, query.Required)

	maxHits, ok := byName["max_hits"]
	require.True(t, ok)
	assert.Equal(t, ParamInteger, maxHits.Type)
	assert.False(t, maxHits.Required)
}

func TestMCPDefinition_EmptySchemaYieldsNoParameters(t *testing.T) {
	def := mcpDefinition("search-server", sdkmcp.Tool{Name: "noop"}, 0)
	assert.Empty(t, def.Parameters)
}
