package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONSchema converts a Definition's Parameters into a JSON schema document,
// suitable for embedding in the Driver's system prompt (spec.md §4.6 step
// 2) or returning from get_available_tools. Unlike the teacher's
// functiontool.generateSchema (which reflects a Go type), our parameters
// are already a runtime schema, so this is a schema->schema conversion.
func (d Definition) JSONSchema() map[string]any {
	props := orderedmap.New[string, *jsonschema.Schema]()
	required := make([]string, 0, len(d.Parameters))

	for _, p := range d.Parameters {
		props.Set(p.Name, &jsonschema.Schema{
			Type:        paramJSONType(p.Type),
			Description: p.Description,
		})
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}

	data, err := json.Marshal(schema)
	if err != nil {
		// Marshalling a hand-built schema of primitive fields cannot fail;
		// fall back to an empty object schema rather than panic.
		return map[string]any{"type": "object"}
	}

	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}

func paramJSONType(t ParamType) string {
	switch t {
	case ParamInteger:
		return "integer"
	case ParamFloat:
		return "number"
	case ParamBoolean:
		return "boolean"
	case ParamObject:
		return "object"
	case ParamArray:
		return "array"
	default:
		return "string"
	}
}
