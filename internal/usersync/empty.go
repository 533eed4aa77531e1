package usersync

import "encoding/json"

// IsEmpty reports whether a document carries no data: missing, null, [] or {}.
// Invalid JSON counts as empty, it is never pushed or kept over a server copy.
func IsEmpty(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return true
	}
	switch val := v.(type) {
	case nil:
		return true
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}
