package tool

import (
	"encoding/json"

	"github.com/hupe1980/pagemesh/core"
)

// Input is the typed union of accepted invocation inputs. A StringInput is
// mapped to the tool's first declared parameter; an ArgsInput supplies named
// arguments directly.
type Input interface {
	isInput()
}

// StringInput is a single positional value bound to the tool's first
// declared parameter.
type StringInput string

func (StringInput) isInput() {}

// ArgsInput supplies named arguments directly.
type ArgsInput map[string]any

func (ArgsInput) isInput() {}

// ResolveInput coerces an Input into the named-argument map the wrapped
// function receives. It is a pure function of the input and the tool's
// declared parameters.
func ResolveInput(input Input, def Definition) (map[string]any, error) {
	switch in := input.(type) {
	case StringInput:
		if len(def.Parameters) == 0 {
			return nil, &core.ValidationError{
				Field:   "input",
				Value:   string(in),
				Message: "tool declares no parameters, cannot bind a positional value",
			}
		}

		return map[string]any{def.Parameters[0].Name: string(in)}, nil
	case ArgsInput:
		args := make(map[string]any, len(in))
		for k, v := range in {
			args[k] = v
		}

		return args, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, &core.ValidationError{
			Field:   "input",
			Message: "unsupported input kind",
		}
	}
}

// ParseArgs decodes a JSON object into an ArgsInput. A JSON string decodes
// into a StringInput. Used when arguments arrive as raw model output.
func ParseArgs(raw string) (Input, error) {
	var asMap map[string]any
	if err := json.Unmarshal([]byte(raw), &asMap); err == nil {
		return ArgsInput(asMap), nil
	}

	var asString string
	if err := json.Unmarshal([]byte(raw), &asString); err == nil {
		return StringInput(asString), nil
	}

	return nil, &core.ValidationError{
		Field:   "input",
		Value:   raw,
		Message: "input must be a JSON object or string",
	}
}
