// Package config loads agentcored's runtime configuration: process-wide
// settings from OMNIFORGE_* environment variables (spec.md §6), plus
// per-tenant governance and rate-limit policy from a YAML file, grounded
// on the teacher's pkg/config (env var expansion, .env loading) and
// pkg/config/provider/file.go (fsnotify-based hot reload).
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration read from OMNIFORGE_* env
// vars. Per-tenant policy lives in PolicyFile, loaded separately since it
// can hot-reload independently of process env.
type Config struct {
	TenantID string

	LLM LLMConfig

	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GroqAPIKey       string
	OpenRouterAPIKey string

	AzureOpenAI AzureOpenAIConfig
}

// LLMConfig carries the OMNIFORGE_LLM_* settings.
type LLMConfig struct {
	DefaultModel    string
	FallbackModels  []string
	TimeoutMS       int64
	MaxRetries      int
	ApprovedModels  []string
	CacheEnabled    bool
	CacheTTLSeconds int64
}

// AzureOpenAIConfig carries the OMNIFORGE_AZURE_OPENAI_* settings.
type AzureOpenAIConfig struct {
	APIKey     string
	APIBase    string
	APIVersion string
}

// LoadEnvFiles loads .env.local then .env into the process environment,
// mirroring the teacher's LoadEnvFiles (pkg/config/env.go): existing env
// vars always win, missing files are not an error.
func LoadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// FromEnv reads Config from the process environment. Call LoadEnvFiles
// first if a .env file should seed os.Getenv.
func FromEnv() Config {
	return Config{
		TenantID: os.Getenv("OMNIFORGE_TENANT_ID"),
		LLM: LLMConfig{
			DefaultModel:    os.Getenv("OMNIFORGE_LLM_DEFAULT_MODEL"),
			FallbackModels:  splitCSV(os.Getenv("OMNIFORGE_LLM_FALLBACK_MODELS")),
			TimeoutMS:       envInt64("OMNIFORGE_LLM_TIMEOUT_MS", 30000),
			MaxRetries:      int(envInt64("OMNIFORGE_LLM_MAX_RETRIES", 2)),
			ApprovedModels:  splitCSV(os.Getenv("OMNIFORGE_LLM_APPROVED_MODELS")),
			CacheEnabled:    envBool("OMNIFORGE_LLM_CACHE_ENABLED", false),
			CacheTTLSeconds: envInt64("OMNIFORGE_LLM_CACHE_TTL_SECONDS", 300),
		},
		OpenAIAPIKey:     os.Getenv("OMNIFORGE_OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("OMNIFORGE_ANTHROPIC_API_KEY"),
		GroqAPIKey:       os.Getenv("OMNIFORGE_GROQ_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OMNIFORGE_OPENROUTER_API_KEY"),
		AzureOpenAI: AzureOpenAIConfig{
			APIKey:     os.Getenv("OMNIFORGE_AZURE_OPENAI_API_KEY"),
			APIBase:    os.Getenv("OMNIFORGE_AZURE_OPENAI_API_BASE"),
			APIVersion: os.Getenv("OMNIFORGE_AZURE_OPENAI_API_VERSION"),
		},
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// envBool parses the {true,True,TRUE,1,yes,Yes}/{false,False,FALSE,0,no,No}
// vocabulary spec.md §6 requires for boolean env vars; anything else
// falls back to def.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	switch v {
	case "true", "True", "TRUE", "1", "yes", "Yes":
		return true
	case "false", "False", "FALSE", "0", "no", "No":
		return false
	default:
		return def
	}
}
