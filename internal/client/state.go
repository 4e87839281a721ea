// Package client holds the browser-side view model: four state trees fed by
// the server event stream, each reducing entity updates into the values the
// dashboard renders. The same reducers back the hotelhub-watch CLI.
package client

import (
	"strconv"

	"github.com/aegeanview/hotelhub/internal/upstream"
)

// parseNumber coerces an entity state string to a float. Non-numeric states
// ("unavailable", "unknown", garbage) become 0 so the UI renders a zero
// reading instead of crashing mid-stream.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// attrNumber reads a numeric attribute, tolerating both float and string
// encodings. Missing or malformed attributes become 0.
func attrNumber(st upstream.EntityState, key string) float64 {
	raw, ok := st.Attributes[key]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case string:
		return parseNumber(v)
	default:
		return 0
	}
}

func isOn(state string) bool { return state == "on" }
