package governance

// Usage is actual token consumption reported by (or computed for) a
// completed LLM call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	// ReportedCostUSD, if non-nil, is a provider-reported cost that
	// supersedes the computed estimate per spec.md §4.3 ("or use the
	// provider-reported cost if present").
	ReportedCostUSD *float64
}

// Tracker computes pre-call estimates and post-call actuals against a
// CostTable.
type Tracker struct {
	table *CostTable
}

// NewTracker creates a Tracker backed by table. A nil table uses
// NewCostTable()'s built-in rates.
func NewTracker(table *CostTable) *Tracker {
	if table == nil {
		table = NewCostTable()
	}
	return &Tracker{table: table}
}

// EstimateCall computes the pre-call cost estimate for model given the
// conversation messages and an optional max_tokens cap, per spec.md §4.3:
// sum(estimate_tokens(msg)) * input_rate + (max_tokens/2) * output_rate.
// When maxTokens is nil, the model's MaxOutputTokens is used.
func (t *Tracker) EstimateCall(model string, messages []Message, maxTokens *int64) float64 {
	rate := t.table.Lookup(model)

	inputTokens := EstimateMessagesTokens(model, messages)
	inputCost := float64(inputTokens) / 1_000_000 * rate.InputCostPer1M

	outputCap := rate.MaxOutputTokens
	if maxTokens != nil && *maxTokens > 0 {
		outputCap = *maxTokens
	}
	outputCost := float64(outputCap) / 2 / 1_000_000 * rate.OutputCostPer1M

	return inputCost + outputCost
}

// ActualCost computes the realized cost of a completed call from actual
// usage, preferring a provider-reported cost when present.
func (t *Tracker) ActualCost(model string, usage Usage) float64 {
	if usage.ReportedCostUSD != nil {
		return *usage.ReportedCostUSD
	}

	rate := t.table.Lookup(model)
	inputCost := float64(usage.InputTokens) / 1_000_000 * rate.InputCostPer1M
	outputCost := float64(usage.OutputTokens) / 1_000_000 * rate.OutputCostPer1M
	return inputCost + outputCost
}
