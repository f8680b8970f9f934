// Package value defines the dynamic document tree model shared by every
// core component: nil, bool, int64, float64, string, []any and *Object.
package value

import (
	"fmt"
	"sort"
	"strconv"
)

// TypeName maps a document value to its JSON-ish type name.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []any:
		return "array"
	case *Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Kind collapses int and float into a single numeric kind. The differ uses
// it so 1 and 1.5 compare as values instead of as a type change.
func Kind(v any) string {
	switch v.(type) {
	case int, int64, float64:
		return "number"
	default:
		return TypeName(v)
	}
}

// Equal reports deep structural equality. Numbers compare by value across
// int/float representations; object key order is irrelevant.
func Equal(a, b any) bool {
	if af, aok := ToFloat64(a); aok {
		bf, bok := ToFloat64(b)
		return bok && af == bf
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv, ok := b.(*Object)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for k, inner := range av.All() {
			other, ok := bv.Get(k)
			if !ok || !Equal(inner, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// UniqueTypes returns the sorted set of type names seen across values.
func UniqueTypes(values []any) []string {
	seen := make(map[string]struct{})
	for _, v := range values {
		seen[TypeName(v)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Display renders a value for human-facing summaries: scalars in their
// natural form, containers in canonical JSON.
func Display(v any) string {
	switch cur := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(cur)
	case int64:
		return strconv.FormatInt(cur, 10)
	case int:
		return strconv.Itoa(cur)
	case float64:
		return strconv.FormatFloat(cur, 'g', -1, 64)
	case string:
		return cur
	default:
		return Canonical(v)
	}
}
