package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sdkclient "github.com/mark3labs/mcp-go/client"
	sdkmcp "github.com/mark3labs/mcp-go/mcp"
)

// MCPServerConfig describes how to reach a single MCP server.
type MCPServerConfig struct {
	Name      string
	Transport string // "stdio" | "sse"
	Command   string
	Args      []string
	Env       []string
	URL       string
	TimeoutMS int64
}

// mcpTool adapts a single remote MCP tool into the local Tool interface.
type mcpTool struct {
	def    Definition
	client sdkclient.MCPClient
}

func (t mcpTool) Definition() Definition { return t.def }

func (t mcpTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	req := sdkmcp.CallToolRequest{}
	req.Params.Name = t.def.Name
	req.Params.Arguments = args

	result, err := t.client.CallTool(ctx, req)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}

	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(sdkmcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if result.IsError {
		return Result{Success: false, Error: text}, nil
	}
	return Result{Success: true, Result: map[string]any{"text": text}}, nil
}

// MCPSource is a Source whose tools are discovered from a remote MCP
// server, grounded on the mark3labs/mcp-go client usage in the retrieved
// pack (internal/mcp/client.go of the Pocket-Omega example).
type MCPSource struct {
	cfg MCPServerConfig

	mu     sync.RWMutex
	client sdkclient.MCPClient
	tools  map[string]Tool
}

// NewMCPSource builds an unconnected MCPSource; Discover performs the
// connection and the MCP initialize handshake.
func NewMCPSource(cfg MCPServerConfig) *MCPSource {
	return &MCPSource{cfg: cfg, tools: make(map[string]Tool)}
}

func (s *MCPSource) Name() string { return s.cfg.Name }

func (s *MCPSource) Discover(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}

	_, err = client.Initialize(ctx, sdkmcp.InitializeRequest{
		Params: sdkmcp.InitializeParams{
			ProtocolVersion: sdkmcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: sdkmcp.Implementation{
				Name:    "agentcore",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("mcp %q: initialize: %w", s.cfg.Name, err)
	}

	listed, err := client.ListTools(ctx, sdkmcp.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("mcp %q: list tools: %w", s.cfg.Name, err)
	}

	tools := make(map[string]Tool, len(listed.Tools))
	for _, lt := range listed.Tools {
		tools[lt.Name] = mcpTool{
			def:    mcpDefinition(s.cfg.Name, lt, s.cfg.TimeoutMS),
			client: client,
		}
	}

	s.mu.Lock()
	s.client = client
	s.tools = tools
	s.mu.Unlock()
	return nil
}

func (s *MCPSource) connect(ctx context.Context) (sdkclient.MCPClient, error) {
	switch s.cfg.Transport {
	case "stdio":
		return sdkclient.NewStdioMCPClient(s.cfg.Command, s.cfg.Env, s.cfg.Args...)
	case "sse", "":
		cli, err := sdkclient.NewSSEMCPClient(s.cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("mcp %q: create sse client: %w", s.cfg.Name, err)
		}
		if err := cli.Start(ctx); err != nil {
			return nil, fmt.Errorf("mcp %q: start sse client: %w", s.cfg.Name, err)
		}
		return cli, nil
	default:
		return nil, fmt.Errorf("mcp %q: unknown transport %q", s.cfg.Name, s.cfg.Transport)
	}
}

func (s *MCPSource) List() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]Definition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.Definition())
	}
	return defs
}

func (s *MCPSource) Get(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[name]
	return t, ok
}

// Close releases the underlying MCP connection.
func (s *MCPSource) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

func mcpDefinition(sourceName string, lt sdkmcp.Tool, timeoutMS int64) Definition {
	params := []Parameter{}
	if schema, err := json.Marshal(lt.InputSchema); err == nil {
		var raw struct {
			Properties map[string]struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			} `json:"properties"`
			Required []string `json:"required"`
		}
		if json.Unmarshal(schema, &raw) == nil {
			required := make(map[string]bool, len(raw.Required))
			for _, r := range raw.Required {
				required[r] = true
			}
			for name, p := range raw.Properties {
				params = append(params, Parameter{
					Name:        name,
					Type:        ParamType(p.Type),
					Description: p.Description,
					Required:    required[name],
				})
			}
		}
	}

	return Definition{
		Name:        lt.Name,
		Type:        TypeAPI,
		Description: lt.Description,
		Parameters:  params,
		TimeoutMS:   timeoutMS,
		Tags:        []string{"mcp:" + sourceName},
	}
}

var _ Source = (*MCPSource)(nil)
