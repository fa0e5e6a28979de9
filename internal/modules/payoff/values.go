package payoff

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Values is the loosely typed parameter bag exchanged with operators and
// storage. Numbers may arrive as any numeric type (JSON gives float64,
// msgpack gives the narrowest integer), so getters coerce.
type Values map[string]any

// Number returns key as a float64.
func (v Values) Number(key string) (float64, bool) {
	switch n := v[key].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Bool returns key as a bool. "true"/"false" strings and 0/1 numbers are accepted.
func (v Values) Bool(key string) (bool, bool) {
	switch b := v[key].(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	if n, ok := v.Number(key); ok {
		return n != 0, true
	}
	return false, false
}

// String returns key as a lower-cased, trimmed string.
func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	if !ok {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(s)), true
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
