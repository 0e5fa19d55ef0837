// Package governance implements the cost tracker and model governance
// gate described in spec.md §4.3: a static per-model cost table used to
// estimate and compute LLM call cost, and a per-tenant allow/deny policy
// evaluated before any LLM call is permitted to run.
package governance

// ModelCost is the static per-model pricing agentcore uses to estimate
// and compute cost. Rates are USD per 1,000,000 tokens.
type ModelCost struct {
	InputCostPer1M  float64
	OutputCostPer1M float64
	MaxOutputTokens int64
}

// defaultModelCost is used for any model not present in the cost table —
// conservative (high) rates so an unrecognized model never silently
// under-estimates spend.
var defaultModelCost = ModelCost{
	InputCostPer1M:  15.0,
	OutputCostPer1M: 75.0,
	MaxOutputTokens: 4096,
}

// costTable holds the known-model rates. Populated with commonly deployed
// models; unlisted models fall back to defaultModelCost.
var costTable = map[string]ModelCost{
	"gpt-4o":             {InputCostPer1M: 2.50, OutputCostPer1M: 10.00, MaxOutputTokens: 16384},
	"gpt-4o-mini":        {InputCostPer1M: 0.15, OutputCostPer1M: 0.60, MaxOutputTokens: 16384},
	"gpt-4-turbo":        {InputCostPer1M: 10.00, OutputCostPer1M: 30.00, MaxOutputTokens: 4096},
	"gpt-3.5-turbo":      {InputCostPer1M: 0.50, OutputCostPer1M: 1.50, MaxOutputTokens: 4096},
	"claude-3-5-sonnet":  {InputCostPer1M: 3.00, OutputCostPer1M: 15.00, MaxOutputTokens: 8192},
	"claude-3-opus":      {InputCostPer1M: 15.00, OutputCostPer1M: 75.00, MaxOutputTokens: 4096},
	"claude-3-haiku":     {InputCostPer1M: 0.25, OutputCostPer1M: 1.25, MaxOutputTokens: 4096},
	"gemini-1.5-pro":     {InputCostPer1M: 1.25, OutputCostPer1M: 5.00, MaxOutputTokens: 8192},
	"gemini-1.5-flash":   {InputCostPer1M: 0.075, OutputCostPer1M: 0.30, MaxOutputTokens: 8192},
	"llama-3.1-70b":      {InputCostPer1M: 0.59, OutputCostPer1M: 0.79, MaxOutputTokens: 4096},
}

// CostTable is the lookup agentcore uses for pricing. Embedding the map in
// a type lets callers install a custom table (e.g. loaded from YAML
// config) instead of the package-level default.
type CostTable struct {
	rates   map[string]ModelCost
	byDefault ModelCost
}

// NewCostTable creates a CostTable seeded with the built-in known-model
// rates. Callers may overlay additional/overridden entries with Set.
func NewCostTable() *CostTable {
	rates := make(map[string]ModelCost, len(costTable))
	for k, v := range costTable {
		rates[k] = v
	}
	return &CostTable{rates: rates, byDefault: defaultModelCost}
}

// Set installs or overrides the rate for model.
func (t *CostTable) Set(model string, cost ModelCost) {
	t.rates[model] = cost
}

// Lookup returns the rate for model, or the conservative default if
// unknown.
func (t *CostTable) Lookup(model string) ModelCost {
	if c, ok := t.rates[model]; ok {
		return c
	}
	return t.byDefault
}
