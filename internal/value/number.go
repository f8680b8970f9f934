package value

import (
	"encoding/json"
)

// ToFloat64 converts supported numeric values to float64.
// Booleans are deliberately not numeric.
func ToFloat64(v any) (float64, bool) {
	switch current := v.(type) {
	case int:
		return float64(current), true
	case int8:
		return float64(current), true
	case int16:
		return float64(current), true
	case int32:
		return float64(current), true
	case int64:
		return float64(current), true
	case uint:
		return float64(current), true
	case uint8:
		return float64(current), true
	case uint16:
		return float64(current), true
	case uint32:
		return float64(current), true
	case uint64:
		return float64(current), true
	case float32:
		return float64(current), true
	case float64:
		return current, true
	case json.Number:
		parsed, err := current.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
