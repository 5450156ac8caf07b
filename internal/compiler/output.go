package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// stripCodeFence removes an optional markdown code-fence wrapper
// (``` or ```json / ```yaml) from a model response.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		first := strings.TrimSpace(trimmed[:idx])
		if first == "" || isLanguageTag(first) {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// parseStructured decodes a raw model response according to the declared
// output format ("json" or "yaml") after stripping any code fence.
func parseStructured(format, raw string) (map[string]any, error) {
	body := stripCodeFence(raw)
	switch format {
	case "json":
		var m map[string]any
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("parse json output: %w", err)
		}
		return m, nil
	case "yaml":
		var m map[string]any
		if err := yaml.Unmarshal([]byte(body), &m); err != nil {
			return nil, fmt.Errorf("parse yaml output: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
