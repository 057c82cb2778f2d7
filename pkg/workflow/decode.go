package workflow

import (
	"encoding/json"
	"fmt"
)

// As converts a node result to T. Results reused from the disk cache come
// back as decoded JSON (float64, map[string]any, []any), so when a direct type
// assertion fails the value is re-encoded and decoded into T.
func As[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}

	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("convert %T to %T: %w", v, out, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("convert %T to %T: %w", v, out, err)
	}
	return out, nil
}
