package tool

import (
	"context"
	"fmt"
	"net/rpc"
	"os/exec"
	"sync"

	goplugin "github.com/hashicorp/go-plugin"
)

// PluginHandshake is the handshake both agentcore and a tool-plugin binary
// must agree on before go-plugin will talk to it. Grounded on the standard
// hashicorp/go-plugin basic-plugin handshake pattern.
var PluginHandshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "AGENTCORE_TOOL_PLUGIN",
	MagicCookieValue: "v1",
}

// PluginToolInterface is the net/rpc-style contract a tool plugin binary
// implements. Methods take exactly one argument and return exactly one
// error, per net/rpc's requirements.
type PluginToolInterface interface {
	Definitions(args struct{}, reply *[]Definition) error
	Execute(args PluginExecuteArgs, reply *Result) error
}

// PluginExecuteArgs is the net/rpc argument for a plugin Execute call.
type PluginExecuteArgs struct {
	Name string
	Args map[string]any
}

// pluginRPCClient is the client-side stub used inside agentcore's process.
type pluginRPCClient struct{ client *rpc.Client }

func (c *pluginRPCClient) Definitions() ([]Definition, error) {
	var reply []Definition
	if err := c.client.Call("Plugin.Definitions", struct{}{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *pluginRPCClient) Execute(name string, args map[string]any) (Result, error) {
	var reply Result
	err := c.client.Call("Plugin.Execute", PluginExecuteArgs{Name: name, Args: args}, &reply)
	return reply, err
}

// pluginRPCServer is the server-side stub a tool-plugin binary registers.
// Embedders implement PluginToolInterface and wrap it with this type.
type pluginRPCServer struct{ Impl PluginToolInterface }

func (s *pluginRPCServer) Definitions(args struct{}, reply *[]Definition) error {
	return s.Impl.Definitions(args, reply)
}

func (s *pluginRPCServer) Execute(args PluginExecuteArgs, reply *Result) error {
	return s.Impl.Execute(args, reply)
}

// ToolPlugin is the go-plugin.Plugin implementation shared by both the
// plugin binary (serving) and agentcore (dispensing a client stub).
type ToolPlugin struct {
	Impl PluginToolInterface
}

func (p *ToolPlugin) Server(*goplugin.MuxBroker) (any, error) {
	return &pluginRPCServer{Impl: p.Impl}, nil
}

func (p *ToolPlugin) Client(b *goplugin.MuxBroker, c *rpc.Client) (any, error) {
	return &pluginRPCClient{client: c}, nil
}

// pluginTool adapts a single tool exposed by a plugin process into the
// local Tool interface.
type pluginTool struct {
	def    Definition
	client *pluginRPCClient
}

func (t pluginTool) Definition() Definition { return t.def }

func (t pluginTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	result, err := t.client.Execute(t.def.Name, args)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return result, nil
}

// PluginSource is a Source backed by an out-of-process plugin binary,
// launched and supervised via hashicorp/go-plugin — the pluggable
// dispatch layer spec.md §9 calls for ("tools implemented as separate
// binaries"), grounded on go-plugin's documented basic-plugin example.
type PluginSource struct {
	name string
	path string
	args []string

	mu     sync.RWMutex
	client *goplugin.Client
	tools  map[string]Tool
}

// NewPluginSource configures (without launching) a plugin-backed source.
func NewPluginSource(name, path string, args ...string) *PluginSource {
	return &PluginSource{name: name, path: path, args: args, tools: make(map[string]Tool)}
}

func (s *PluginSource) Name() string { return s.name }

func (s *PluginSource) Discover(ctx context.Context) error {
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: PluginHandshake,
		Plugins: map[string]goplugin.Plugin{
			"tool": &ToolPlugin{},
		},
		Cmd:             exec.Command(s.path, s.args...),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return fmt.Errorf("plugin %q: connect: %w", s.name, err)
	}

	raw, err := rpcClient.Dispense("tool")
	if err != nil {
		client.Kill()
		return fmt.Errorf("plugin %q: dispense: %w", s.name, err)
	}

	stub, ok := raw.(*pluginRPCClient)
	if !ok {
		client.Kill()
		return fmt.Errorf("plugin %q: unexpected stub type %T", s.name, raw)
	}

	defs, err := stub.Definitions()
	if err != nil {
		client.Kill()
		return fmt.Errorf("plugin %q: list definitions: %w", s.name, err)
	}

	tools := make(map[string]Tool, len(defs))
	for _, def := range defs {
		def.Tags = append(def.Tags, "plugin:"+s.name)
		tools[def.Name] = pluginTool{def: def, client: stub}
	}

	s.mu.Lock()
	s.client = client
	s.tools = tools
	s.mu.Unlock()
	return nil
}

func (s *PluginSource) List() []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]Definition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.Definition())
	}
	return defs
}

func (s *PluginSource) Get(name string) (Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[name]
	return t, ok
}

// Close terminates the plugin subprocess.
func (s *PluginSource) Close() error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client != nil {
		client.Kill()
	}
	return nil
}

var _ Source = (*PluginSource)(nil)
