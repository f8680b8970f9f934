package value

import (
	"bytes"
	"iter"
	"slices"

	json "github.com/goccy/go-json"
)

// Object is a string-keyed mapping that preserves key insertion order.
// Decoded JSON and YAML documents use it wherever the wire format carried
// an object, so traversals observe keys in document order.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores v under key. A key keeps its original position when set again.
func (o *Object) Set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	return true
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

// Values returns the values in key insertion order.
func (o *Object) Values() []any {
	out := make([]any, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.values[k])
	}
	return out
}

// All iterates key/value pairs in insertion order.
func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range o.keys {
			if !yield(k, o.values[k]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Plain converts v into plain Go containers: *Object becomes map[string]any
// and arrays are converted element-wise. Insertion order is lost; callers
// use it to hand trees to libraries that only understand plain maps.
func Plain(v any) any {
	switch cur := v.(type) {
	case *Object:
		out := make(map[string]any, cur.Len())
		for k, inner := range cur.All() {
			out[k] = Plain(inner)
		}
		return out
	case []any:
		out := make([]any, len(cur))
		for i, inner := range cur {
			out[i] = Plain(inner)
		}
		return out
	default:
		return v
	}
}
