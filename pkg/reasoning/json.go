package reasoning

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON emits Step normally; it exists only so Step documents that
// it pairs with the custom UnmarshalJSON below.
func (s Step) MarshalJSON() ([]byte, error) {
	type plain Step
	return json.Marshal(plain(s))
}

// UnmarshalJSON decodes Payload into the concrete payload type Type
// names, instead of the generic map[string]any encoding/json would
// otherwise produce for an `any`-typed field. Round-tripping a Step
// through JSON (e.g. via a SQL-backed repository) would otherwise lose
// the type information callers like pkg/visibility rely on.
func (s *Step) UnmarshalJSON(data []byte) error {
	type plain Step
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}

	var raw struct {
		Type    StepType        `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Payload) == 0 {
		return nil
	}

	switch raw.Type {
	case StepThinking:
		var p ThinkingPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("reasoning: unmarshal thinking payload: %w", err)
		}
		s.Payload = p
	case StepToolCall:
		var p ToolCallPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("reasoning: unmarshal tool_call payload: %w", err)
		}
		s.Payload = p
	case StepToolResult:
		var p ToolResultPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("reasoning: unmarshal tool_result payload: %w", err)
		}
		s.Payload = p
	case StepSynthesis:
		var p SynthesisPayload
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("reasoning: unmarshal synthesis payload: %w", err)
		}
		s.Payload = p
	default:
		var p map[string]any
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return fmt.Errorf("reasoning: unmarshal unknown payload: %w", err)
		}
		s.Payload = p
	}
	return nil
}
