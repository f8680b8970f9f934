// Package extractor evaluates compiled path expressions against document
// trees. Extraction is total: a missing key or out-of-range index yields
// an empty result, never an error, so record pipelines keep moving when a
// record lacks an optional field.
package extractor

import (
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/value"
)

// Extract returns every value addressed by expr in root. The working set
// starts at root and each token expands or narrows it: keys select object
// fields, indices select array positions (negative counts from the end),
// wildcards fan out over array elements or object values in insertion
// order. Candidates of the wrong container kind are dropped silently.
func Extract(root any, expr path.Expression) []any {
	matches := []any{root}
	for _, tok := range expr {
		var next []any
		for _, candidate := range matches {
			switch tok.Kind {
			case path.Key:
				if obj, ok := candidate.(*value.Object); ok {
					if v, ok := obj.Get(tok.Name); ok {
						next = append(next, v)
					}
				}
			case path.Index:
				if arr, ok := candidate.([]any); ok {
					idx := tok.Index
					if idx < 0 {
						idx += len(arr)
					}
					if idx >= 0 && idx < len(arr) {
						next = append(next, arr[idx])
					}
				}
			case path.Wildcard:
				switch c := candidate.(type) {
				case []any:
					next = append(next, c...)
				case *value.Object:
					next = append(next, c.Values()...)
				}
			}
		}
		matches = next
		if len(matches) == 0 {
			return nil
		}
	}
	return matches
}

// Exists reports whether expr matches at least one value in root.
func Exists(root any, expr path.Expression) bool {
	return len(Extract(root, expr)) > 0
}

// First returns the first match of expr in root, or fallback when there is none.
func First(root any, expr path.Expression, fallback any) any {
	if matches := Extract(root, expr); len(matches) > 0 {
		return matches[0]
	}
	return fallback
}

// ResolveArray resolves the record array addressed by rawPath. With a
// path it returns the first array-typed match, or nil when none matches.
// Without a path it returns root itself when root is already an array.
// Callers decide whether to fall back to treating the whole document as a
// single record.
func ResolveArray(root any, rawPath string) ([]any, error) {
	if rawPath == "" {
		if arr, ok := root.([]any); ok {
			return arr, nil
		}
		return nil, nil
	}

	expr, err := path.Compile(rawPath)
	if err != nil {
		return nil, err
	}
	for _, m := range Extract(root, expr) {
		if arr, ok := m.([]any); ok {
			return arr, nil
		}
	}
	return nil, nil
}
