package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Spec is the function-tool schema handed to an assistant host.
type Spec struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function names a tool and describes its JSON-schema parameters.
type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// Call is one tool invocation from a host. Input is either a JSON object or
// a JSON string holding an encoded object; both shapes occur in the wild.
type Call struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Args returns the call input as a raw JSON object. Missing input is {}.
func (c Call) Args() (json.RawMessage, error) {
	raw := strings.TrimSpace(string(c.Input))
	if raw == "" || raw == "null" {
		return json.RawMessage("{}"), nil
	}
	if raw[0] != '"' {
		return json.RawMessage(raw), nil
	}
	var encoded string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, fmt.Errorf("tool %s input: %w", c.Name, err)
	}
	if strings.TrimSpace(encoded) == "" {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(encoded), nil
}

func functionSpec(name, description string, properties map[string]any, required ...string) Spec {
	params := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return Spec{
		Type:     "function",
		Function: Function{Name: name, Description: description, Parameters: params},
	}
}
