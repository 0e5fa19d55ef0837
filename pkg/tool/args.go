package tool

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Args is a typed accessor layer over the map[string]any arguments a tool
// call carries. It exists because runtime arguments coming from an LLM are
// dynamically shaped (spec.md §9 "Dynamic named arguments"); Decode gives
// callers a single place to turn that into a concrete struct with proper
// error reporting instead of hand-rolled type assertions.
type Args map[string]any

// Decode populates dst (a pointer to a struct) from the argument map using
// `mapstructure` tags, matching the teacher's use of mapstructure for
// config decoding.
func (a Args) Decode(dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return fmt.Errorf("tool args: building decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(a)); err != nil {
		return fmt.Errorf("tool args: decoding: %w", err)
	}
	return nil
}

// Validate checks a raw argument map against a Definition's Parameters,
// reporting the first missing required parameter. It does not mutate args.
func Validate(def Definition, args map[string]any) error {
	for _, p := range def.Parameters {
		if !p.Required {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			return fmt.Errorf("tool %q: missing required parameter %q", def.Name, p.Name)
		}
	}
	return nil
}

// String returns args[key] as a string, or "" if absent/wrong type.
func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// Int64 returns args[key] as an int64, accepting float64 (the common shape
// after JSON-decoding LLM-provided arguments) and int.
func (a Args) Int64(key string) (int64, bool) {
	switch v := a[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float64 returns args[key] as a float64, accepting int/int64 too.
func (a Args) Float64(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
