package driver

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemPrompt builds the system prompt spec.md §4.6 step 2 describes:
// every registered tool's name and JSON schema, plus the strict JSON
// reply format the model must follow. A caller-supplied
// Config.SystemPrompt is prepended verbatim ahead of the tool catalog.
func (d *Driver) systemPrompt() string {
	var b strings.Builder

	if d.cfg.SystemPrompt != "" {
		b.WriteString(d.cfg.SystemPrompt)
		b.WriteString("\n\n")
	}

	b.WriteString("You are an autonomous agent that solves tasks by reasoning step by step and invoking tools.\n\n")
	b.WriteString("Available tools:\n")
	for _, def := range d.engine.GetAvailableTools() {
		schema, err := json.Marshal(def.JSONSchema())
		if err != nil {
			schema = []byte("{}")
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n  parameters: %s\n", def.Name, def.Type, def.Description, schema)
	}

	b.WriteString("\nRespond with exactly one JSON object, no surrounding prose, matching:\n")
	b.WriteString(`{"thought": "...", "action": "<tool_name or 'final_answer'>", "action_input": {...} or "...", "is_final": true|false}`)
	b.WriteString("\n\nSet is_final to true and action to \"final_answer\" once you have enough information to answer the request.")

	return b.String()
}
