package fusion

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Upstream APIs use these to mean "no data".
var sentinels = [...]float64{-999, -9999, -99999}

const maxMagnitude = 1e7

// Sanitize validates a raw value against sentinel patterns and r.
// It accepts numbers, *float64 and numeric strings; empty strings and the
// literal "null" count as absent. A rejected value yields nil, never an error.
func Sanitize(v any, r Range) *float64 {
	n, ok := toFloat(v)
	if !ok {
		return nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	for _, s := range sentinels {
		if n == s {
			return nil
		}
	}
	if math.Abs(n) > maxMagnitude {
		return nil
	}
	if n < r.Min || n > r.Max {
		return nil
	}
	return &n
}

// Float returns a pointer to v, for building optional fields.
func Float(v float64) *float64 {
	return &v
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case *float64:
		if x == nil {
			return 0, false
		}
		return *x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		return parseNumeric(string(x))
	case string:
		return parseNumeric(x)
	default:
		return 0, false
	}
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
