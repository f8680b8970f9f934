package value

import (
	"sort"
	"strconv"
	"strings"
)

// Canonical renders a value as a canonical ordered encoding: object keys
// sorted, array order preserved, numbers collapsed to one numeric form so
// 1 and 1.0 encode identically. The result is an equality key for multiset
// comparison and grouping, never a value of record.
func Canonical(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch cur := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(cur))
	case string:
		b.WriteString(strconv.Quote(cur))
	case []any:
		b.WriteByte('[')
		for i, inner := range cur {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, inner)
		}
		b.WriteByte(']')
	case *Object:
		keys := cur.Keys()
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			inner, _ := cur.Get(k)
			writeCanonical(b, inner)
		}
		b.WriteByte('}')
	default:
		if f, ok := ToFloat64(v); ok {
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			return
		}
		b.WriteString(strconv.Quote(TypeName(v)))
	}
}
