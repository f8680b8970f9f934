// Package aggregate computes group-by tables, sort orders and per-field
// statistics over record sets. Record variants address fields through
// compiled paths; cell variants work on raw CSV text and parse numbers
// on the fly.
package aggregate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yzaremba/rt/internal/value"
)

// ErrInvalidSpec indicates an aggregation spec that does not parse.
var ErrInvalidSpec = errors.New("aggregate: invalid aggregation spec")

var allowedFuncs = map[string]struct{}{
	"count": {}, "sum": {}, "min": {}, "max": {},
	"mean": {}, "list": {}, "unique": {},
}

// Spec is one aggregation: a field to collect and a function to fold it
// with. The bare "count" spec has an empty field.
type Spec struct {
	Field string
	Func  string
}

// ParseSpec parses "count" or "field:func"; the last colon splits, so
// fields containing colons still work.
func ParseSpec(raw string) (Spec, error) {
	if strings.ToLower(strings.TrimSpace(raw)) == "count" {
		return Spec{Func: "count"}, nil
	}
	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return Spec{}, fmt.Errorf("%w: %q is not field:func or count", ErrInvalidSpec, raw)
	}
	fn := strings.ToLower(strings.TrimSpace(raw[idx+1:]))
	if _, ok := allowedFuncs[fn]; !ok {
		return Spec{}, fmt.Errorf("%w: unknown function %q", ErrInvalidSpec, fn)
	}
	return Spec{Field: strings.TrimSpace(raw[:idx]), Func: fn}, nil
}

// Label is the output column name for the aggregation.
func (s Spec) Label() string {
	return s.Field + ":" + s.Func
}

// Apply folds record values with fn. Numeric functions skip non-numeric
// values and return null when nothing numeric remains; sum, min and max
// stay integers when every input was an integer.
func Apply(values []any, fn string) any {
	switch fn {
	case "count":
		return int64(len(values))
	case "list":
		if values == nil {
			return []any{}
		}
		return values
	case "unique":
		seen := make(map[string]struct{})
		out := []any{}
		for _, v := range values {
			token := value.Canonical(v)
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, v)
		}
		return out
	}

	var nums []float64
	allInt := true
	for _, v := range values {
		switch n := v.(type) {
		case int64:
			nums = append(nums, float64(n))
		case float64:
			nums = append(nums, n)
			allInt = false
		}
	}
	if len(nums) == 0 {
		return nil
	}

	var result float64
	switch fn {
	case "sum":
		for _, n := range nums {
			result += n
		}
	case "min":
		result = nums[0]
		for _, n := range nums[1:] {
			if n < result {
				result = n
			}
		}
	case "max":
		result = nums[0]
		for _, n := range nums[1:] {
			if n > result {
				result = n
			}
		}
	case "mean":
		for _, n := range nums {
			result += n
		}
		return result / float64(len(nums))
	default:
		return nil
	}
	if allInt {
		return int64(result)
	}
	return result
}

// ApplyCells folds CSV cells with fn. Numeric functions parse each
// non-empty cell as a float and skip the rest; list and unique keep the
// raw text.
func ApplyCells(values []string, fn string) any {
	switch fn {
	case "count":
		return int64(len(values))
	case "list":
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = v
		}
		return out
	case "unique":
		seen := make(map[string]struct{})
		out := []any{}
		for _, v := range values {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
		return out
	}

	nums := parseCells(values)
	if len(nums) == 0 {
		return nil
	}
	var result float64
	switch fn {
	case "sum":
		for _, n := range nums {
			result += n
		}
	case "min":
		result = nums[0]
		for _, n := range nums[1:] {
			if n < result {
				result = n
			}
		}
	case "max":
		result = nums[0]
		for _, n := range nums[1:] {
			if n > result {
				result = n
			}
		}
	case "mean":
		for _, n := range nums {
			result += n
		}
		result /= float64(len(nums))
	default:
		return nil
	}
	return result
}

func parseCells(values []string) []float64 {
	var nums []float64
	for _, v := range values {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			nums = append(nums, f)
		}
	}
	return nums
}
