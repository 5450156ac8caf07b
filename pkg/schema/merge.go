package schema

import (
	"fmt"
)

// deepMerge layers override on top of base. Mapping keys merge
// recursively, a list replaces a list wholesale, and any cross-kind
// collision (map vs scalar, list vs scalar, map vs list) is a hard error.
// Neither input is mutated.
func deepMerge(base, override map[string]any, path string) (map[string]any, error) {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}

	for k, ov := range override {
		keyPath := k
		if path != "" {
			keyPath = path + "." + k
		}

		bv, exists := merged[k]
		if !exists || bv == nil {
			merged[k] = ov
			continue
		}
		if ov == nil {
			merged[k] = nil
			continue
		}

		bm, baseIsMap := normalizeMap(bv)
		om, overIsMap := normalizeMap(ov)

		switch {
		case baseIsMap && overIsMap:
			sub, err := deepMerge(bm, om, keyPath)
			if err != nil {
				return nil, err
			}
			merged[k] = sub
		case baseIsMap != overIsMap, isList(bv) != isList(ov):
			return nil, &MergeError{
				Path:     keyPath,
				BaseType: fmt.Sprintf("%T", bv),
				OverType: fmt.Sprintf("%T", ov),
			}
		default:
			// Like kinds: the override wins wholesale.
			merged[k] = ov
		}
	}

	return merged, nil
}

// isList reports whether v is one of the sequence forms YAML or JSON
// decoding produces.
func isList(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	default:
		return false
	}
}

// normalizeMap widens the map forms YAML decoding produces into
// map[string]any.
func normalizeMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprintf("%v", k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
