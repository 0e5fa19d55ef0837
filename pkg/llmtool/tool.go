package llmtool

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/omniforge/agentcore/pkg/tool"
)

// Config selects the OpenAI-compatible endpoint and credentials the
// "llm" tool calls. BaseURL defaults to OpenAI's own API, which also
// happens to be the wire format Groq and OpenRouter speak.
type Config struct {
	BaseURL      string
	APIKey       string
	DefaultModel string
	TimeoutMS    int64
	MaxRetries   int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 30000
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   *int64        `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// New builds the "llm" Tool definition + implementation the Engine's
// CallLLM dispatches to (pkg/engine/engine.go). Its parameter schema
// mirrors what CallLLM sends: messages, model, temperature, max_tokens.
func New(cfg Config) tool.Tool {
	cfg = cfg.withDefaults()
	client := newRetryingClient(time.Duration(cfg.TimeoutMS)*time.Millisecond, cfg.MaxRetries)

	return tool.FuncTool{
		Def: tool.Definition{
			Name:        "llm",
			Type:        tool.TypeLLM,
			Description: "Calls the configured LLM provider with a chat-style message list.",
			Parameters: []tool.Parameter{
				{Name: "messages", Type: tool.ParamArray, Description: "Chat messages (role/content pairs).", Required: true},
				{Name: "model", Type: tool.ParamString, Description: "Model name; falls back to the configured default."},
				{Name: "temperature", Type: tool.ParamFloat, Description: "Sampling temperature."},
				{Name: "max_tokens", Type: tool.ParamInteger, Description: "Maximum completion tokens."},
			},
			TimeoutMS: cfg.TimeoutMS,
		},
		Fn: func(ctx context.Context, args map[string]any) (tool.Result, error) {
			return call(ctx, client, cfg, args)
		},
	}
}

func call(ctx context.Context, client *retryingClient, cfg Config, args map[string]any) (tool.Result, error) {
	model, _ := args["model"].(string)
	if model == "" {
		model = cfg.DefaultModel
	}

	messages, err := decodeMessages(args["messages"])
	if err != nil {
		return tool.Result{Success: false, Error: err.Error()}, nil
	}

	temperature, _ := args["temperature"].(float64)

	req := chatRequest{Model: model, Messages: messages, Temperature: temperature}
	if mt, ok := args["max_tokens"].(int64); ok && mt > 0 {
		req.MaxTokens = &mt
	}

	body, err := encodeJSONBody(req)
	if err != nil {
		return tool.Result{Success: false, Error: err.Error()}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", body)
	if err != nil {
		return tool.Result{Success: false, Error: err.Error()}, nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.do(httpReq)
	if err != nil {
		return tool.Result{Success: false, Error: fmt.Sprintf("llm call failed: %v", err)}, nil
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := decodeJSONBody(resp.Body, &decoded); err != nil {
		return tool.Result{Success: false, Error: fmt.Sprintf("failed to decode llm response: %v", err)}, nil
	}
	if len(decoded.Choices) == 0 {
		return tool.Result{Success: false, Error: "llm response contained no choices"}, nil
	}

	tokensUsed := decoded.Usage.TotalTokens
	return tool.Result{
		Success:    true,
		Result:     map[string]any{"content": decoded.Choices[0].Message.Content, "model": model},
		TokensUsed: &tokensUsed,
	}, nil
}

func decodeMessages(raw any) ([]chatMessage, error) {
	items, ok := raw.([]map[string]any)
	if !ok {
		rawSlice, ok2 := raw.([]any)
		if !ok2 {
			return nil, fmt.Errorf("messages must be an array of role/content objects")
		}
		items = make([]map[string]any, 0, len(rawSlice))
		for _, v := range rawSlice {
			m, ok3 := v.(map[string]any)
			if !ok3 {
				return nil, fmt.Errorf("messages must be an array of role/content objects")
			}
			items = append(items, m)
		}
	}

	out := make([]chatMessage, 0, len(items))
	for _, item := range items {
		role, _ := item["role"].(string)
		content, _ := item["content"].(string)
		out = append(out, chatMessage{Role: role, Content: content})
	}
	return out, nil
}
