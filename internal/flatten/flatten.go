// Package flatten converts nested document trees into single-level
// key/value mappings with compound keys.
package flatten

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/yzaremba/rt/internal/value"
)

// ErrInvalidArrayMode indicates an unknown array mode name.
var ErrInvalidArrayMode = errors.New("flatten: invalid array mode")

// ArrayMode controls how arrays are treated while flattening.
type ArrayMode uint8

const (
	// ModeIndex appends "[idx]" to the prefix and descends into each element.
	ModeIndex ArrayMode = iota
	// ModeIgnore emits the array verbatim at the current prefix.
	ModeIgnore
	// ModeExpand emits all-scalar arrays verbatim and descends into
	// structured elements without an index segment. Later elements sharing
	// field names overwrite earlier ones; the mode is deliberately lossy.
	ModeExpand
)

// ParseArrayMode parses "index", "ignore" or "expand".
func ParseArrayMode(s string) (ArrayMode, error) {
	switch s {
	case "index", "":
		return ModeIndex, nil
	case "ignore":
		return ModeIgnore, nil
	case "expand":
		return ModeExpand, nil
	default:
		return ModeIndex, fmt.Errorf("%w: %q", ErrInvalidArrayMode, s)
	}
}

// Flatten walks root depth-first, joining ancestor keys with separator.
// Empty containers below the root are preserved as themselves so their
// presence survives flattening.
func Flatten(root any, separator string, mode ArrayMode) map[string]any {
	out := make(map[string]any)
	walk(root, "", separator, mode, out)
	return out
}

func walk(v any, prefix, sep string, mode ArrayMode, out map[string]any) {
	switch cur := v.(type) {
	case *value.Object:
		if cur.Len() == 0 && prefix != "" {
			out[prefix] = cur
			return
		}
		for k, inner := range cur.All() {
			next := k
			if prefix != "" {
				next = prefix + sep + k
			}
			walk(inner, next, sep, mode, out)
		}
	case []any:
		if mode == ModeIgnore {
			out[prefix] = cur
			return
		}
		if mode == ModeExpand && allScalar(cur) {
			out[prefix] = cur
			return
		}
		for i, inner := range cur {
			next := prefix
			if mode != ModeExpand {
				next = prefix + "[" + strconv.Itoa(i) + "]"
			}
			walk(inner, next, sep, mode, out)
		}
		if len(cur) == 0 && prefix != "" {
			out[prefix] = cur
		}
	default:
		out[prefix] = v
	}
}

func allScalar(arr []any) bool {
	for _, v := range arr {
		switch v.(type) {
		case []any, *value.Object:
			return false
		}
	}
	return true
}
