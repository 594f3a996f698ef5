package site

import "encoding/json"

// cloneMap deep-copies a decoded JSON object. Nil stays nil.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []Block:
		return CloneBlocks(t)
	case json.RawMessage:
		return append(json.RawMessage(nil), t...)
	default:
		// strings, numbers, bools and nil are immutable
		return v
	}
}

// mergeMap returns a new map holding base overlaid with patch.
// Keys whose patch value is nil are removed. Returns nil when the result is empty.
func mergeMap(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
