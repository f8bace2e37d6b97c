package tools

import (
	"encoding/json"
	"fmt"
)

// okResult marshals fields as a successful tool result.
func okResult(fields map[string]any) string {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["ok"] = true
	return mustJSON(out)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"ok":false,"error":%q}`, "marshal result: "+err.Error())
	}
	return string(data)
}
