// Package schema derives a depth-bounded type/shape summary from sample
// data. Arrays whose elements are all objects merge into one
// representative record shape instead of one shape per element.
package schema

import (
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/yzaremba/rt/internal/value"
)

// Node summarizes the shape of a document subtree.
type Node struct {
	Type string
	// Fields holds object field schemas in document order (merged array
	// schemas use sorted order). Nil means the node carries no field
	// information, e.g. when the depth bound was reached.
	Fields []Field
	// HasCounts adds field_count (objects) and presence metadata.
	HasCounts bool
	Size      int
	// ItemTypes is the sorted set of element type names; nil for
	// non-array nodes and for arrays truncated by the depth bound.
	ItemTypes  []string
	ItemSchema *Node
	// Presence is "seen/total" for fields merged across array elements.
	Presence string
}

// Field is a named child schema of an object node.
type Field struct {
	Name   string
	Schema *Node
}

// MarshalJSON renders the node with only the populated facets.
func (n *Node) MarshalJSON() ([]byte, error) {
	obj := value.NewObject()
	obj.Set("type", n.Type)
	if n.Fields != nil {
		fields := value.NewObject()
		for _, f := range n.Fields {
			fields.Set(f.Name, f.Schema)
		}
		obj.Set("fields", fields)
		if n.HasCounts && n.Type == "object" {
			obj.Set("field_count", len(n.Fields))
		}
	}
	if n.ItemTypes != nil {
		obj.Set("size", n.Size)
		obj.Set("item_types", n.ItemTypes)
		if n.ItemSchema != nil {
			obj.Set("item_schema", n.ItemSchema)
		}
	}
	if n.Presence != "" {
		obj.Set("presence", n.Presence)
	}
	return json.Marshal(obj)
}

// Infer summarizes root down to maxDepth levels. Below the bound only the
// type name is reported, which guarantees termination on deeply nested
// inputs. With includeCounts, objects report field_count and merged array
// fields report a presence fraction.
func Infer(root any, maxDepth int, includeCounts bool) *Node {
	if maxDepth < 0 {
		return &Node{Type: value.TypeName(root)}
	}

	switch cur := root.(type) {
	case *value.Object:
		n := &Node{Type: "object", Fields: make([]Field, 0, cur.Len()), HasCounts: includeCounts}
		for k, inner := range cur.All() {
			n.Fields = append(n.Fields, Field{Name: k, Schema: Infer(inner, maxDepth-1, includeCounts)})
		}
		return n
	case []any:
		n := &Node{
			Type:      "array",
			Size:      len(cur),
			ItemTypes: value.UniqueTypes(cur),
		}
		if len(cur) > 0 && maxDepth > 0 {
			if allObjects(cur) {
				n.ItemSchema = mergeObjects(cur, maxDepth, includeCounts)
			} else {
				n.ItemSchema = Infer(cur[0], maxDepth-1, includeCounts)
			}
		}
		return n
	default:
		return &Node{Type: value.TypeName(root)}
	}
}

func allObjects(arr []any) bool {
	for _, v := range arr {
		if _, ok := v.(*value.Object); !ok {
			return false
		}
	}
	return true
}

// mergeObjects unifies the keys of every element into one record shape.
// Each merged field is inferred from the first value seen for its key.
func mergeObjects(arr []any, maxDepth int, includeCounts bool) *Node {
	counts := make(map[string]int)
	samples := make(map[string]any)
	for _, v := range arr {
		o := v.(*value.Object)
		for k, inner := range o.All() {
			if counts[k] == 0 {
				samples[k] = inner
			}
			counts[k]++
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	merged := &Node{Type: "object", Fields: make([]Field, 0, len(keys))}
	for _, k := range keys {
		field := Infer(samples[k], maxDepth-1, includeCounts)
		if includeCounts {
			field.Presence = strconv.Itoa(counts[k]) + "/" + strconv.Itoa(len(arr))
		}
		merged.Fields = append(merged.Fields, Field{Name: k, Schema: field})
	}
	return merged
}
