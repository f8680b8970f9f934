// Package diff recursively compares two document trees and reports the
// differences as a deterministic change list: object keys are visited in
// sorted order, array indices in ascending order.
package diff

import (
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/yzaremba/rt/internal/value"
)

// Kind discriminates the change entry variants.
type Kind string

const (
	KindAdded           Kind = "added"
	KindRemoved         Kind = "removed"
	KindChanged         Kind = "changed"
	KindTypeChanged     Kind = "type_change"
	KindArraySetChanged Kind = "array_set_change"
)

// Change describes a single difference between the left and right trees.
// Which of the payload fields are meaningful depends on Kind.
type Change struct {
	Path      string
	Kind      Kind
	Left      any
	Right     any
	LeftType  string
	RightType string
}

// MarshalJSON emits only the fields relevant to the change kind, in a
// stable field order.
func (c Change) MarshalJSON() ([]byte, error) {
	obj := value.NewObject()
	obj.Set("path", c.Path)
	obj.Set("kind", string(c.Kind))
	switch c.Kind {
	case KindAdded:
		obj.Set("right", c.Right)
	case KindRemoved:
		obj.Set("left", c.Left)
	case KindTypeChanged:
		obj.Set("left_type", c.LeftType)
		obj.Set("right_type", c.RightType)
		obj.Set("left", c.Left)
		obj.Set("right", c.Right)
	default:
		obj.Set("left", c.Left)
		obj.Set("right", c.Right)
	}
	return json.Marshal(obj)
}

// Diff compares left and right. When ignoreArrayOrder is true, arrays
// compare as multisets of structurally equal elements and a difference is
// reported as a single ArraySetChanged entry carrying both arrays; the
// differ never descends into arrays in that mode. Diff(x, x, _) is empty
// for any x.
func Diff(left, right any, ignoreArrayOrder bool) []Change {
	var changes []Change
	walk(left, right, "", &changes, ignoreArrayOrder)
	return changes
}

func walk(left, right any, prefix string, changes *[]Change, ignoreOrder bool) {
	// int and float are one numeric kind; 1 vs 1.5 is a value change.
	if value.Kind(left) != value.Kind(right) {
		*changes = append(*changes, Change{
			Path:      display(prefix),
			Kind:      KindTypeChanged,
			LeftType:  value.TypeName(left),
			RightType: value.TypeName(right),
			Left:      left,
			Right:     right,
		})
		return
	}

	switch l := left.(type) {
	case *value.Object:
		walkObjects(l, right.(*value.Object), prefix, changes, ignoreOrder)
	case []any:
		walkArrays(l, right.([]any), prefix, changes, ignoreOrder)
	default:
		if !value.Equal(left, right) {
			*changes = append(*changes, Change{
				Path:  display(prefix),
				Kind:  KindChanged,
				Left:  left,
				Right: right,
			})
		}
	}
}

func walkObjects(left, right *value.Object, prefix string, changes *[]Change, ignoreOrder bool) {
	var removed, added, common []string
	for _, k := range left.Keys() {
		if right.Has(k) {
			common = append(common, k)
		} else {
			removed = append(removed, k)
		}
	}
	for _, k := range right.Keys() {
		if !left.Has(k) {
			added = append(added, k)
		}
	}
	sort.Strings(removed)
	sort.Strings(added)
	sort.Strings(common)

	for _, k := range removed {
		v, _ := left.Get(k)
		*changes = append(*changes, Change{Path: childKey(prefix, k), Kind: KindRemoved, Left: v})
	}
	for _, k := range added {
		v, _ := right.Get(k)
		*changes = append(*changes, Change{Path: childKey(prefix, k), Kind: KindAdded, Right: v})
	}
	for _, k := range common {
		lv, _ := left.Get(k)
		rv, _ := right.Get(k)
		walk(lv, rv, childKey(prefix, k), changes, ignoreOrder)
	}
}

func walkArrays(left, right []any, prefix string, changes *[]Change, ignoreOrder bool) {
	if ignoreOrder {
		if !sameMultiset(left, right) {
			*changes = append(*changes, Change{
				Path:  display(prefix),
				Kind:  KindArraySetChanged,
				Left:  left,
				Right: right,
			})
		}
		return
	}

	shorter := min(len(left), len(right))
	for i := 0; i < shorter; i++ {
		walk(left[i], right[i], childIndex(prefix, i), changes, ignoreOrder)
	}
	for i := shorter; i < len(left); i++ {
		*changes = append(*changes, Change{Path: childIndex(prefix, i), Kind: KindRemoved, Left: left[i]})
	}
	for i := shorter; i < len(right); i++ {
		*changes = append(*changes, Change{Path: childIndex(prefix, i), Kind: KindAdded, Right: right[i]})
	}
}

// sameMultiset compares arrays as multisets keyed by the canonical
// encoding, so equal structures match regardless of element order or
// object key order.
func sameMultiset(left, right []any) bool {
	if len(left) != len(right) {
		return false
	}
	counts := make(map[string]int, len(left))
	for _, v := range left {
		counts[value.Canonical(v)]++
	}
	for _, v := range right {
		key := value.Canonical(v)
		counts[key]--
		if counts[key] < 0 {
			return false
		}
	}
	return true
}

func childKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func childIndex(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}

func display(prefix string) string {
	if prefix == "" {
		return "$"
	}
	return prefix
}
