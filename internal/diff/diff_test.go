package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yzaremba/rt/internal/value"
)

func obj(pairs ...any) *value.Object {
	o := value.NewObject()
	for i := 0; i < len(pairs); i += 2 {
		o.Set(pairs[i].(string), pairs[i+1])
	}
	return o
}

var cmpOpts = cmp.Options{
	cmp.Comparer(func(a, b *value.Object) bool { return value.Equal(a, b) }),
}

func TestDiffIdempotent(t *testing.T) {
	t.Parallel()

	values := []any{
		nil,
		true,
		int64(42),
		4.2,
		"text",
		[]any{int64(1), "a", nil},
		obj("a", int64(1), "b", []any{obj("c", "d")}),
	}

	for _, v := range values {
		for _, ignoreOrder := range []bool{false, true} {
			if got := Diff(v, v, ignoreOrder); len(got) != 0 {
				t.Fatalf("Diff(x, x, %v) = %v, want empty", ignoreOrder, got)
			}
		}
	}
}

func TestDiffObjects(t *testing.T) {
	t.Parallel()

	left := obj("a", int64(1), "b", int64(2))
	right := obj("b", int64(2), "c", int64(3))

	got := Diff(left, right, false)
	want := []Change{
		{Path: "a", Kind: KindRemoved, Left: int64(1)},
		{Path: "c", Kind: KindAdded, Right: int64(3)},
	}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffTypeChangeShortCircuit(t *testing.T) {
	t.Parallel()

	got := Diff(int64(1), "1", false)
	want := []Change{{
		Path:      "$",
		Kind:      KindTypeChanged,
		LeftType:  "int",
		RightType: "string",
		Left:      int64(1),
		Right:     "1",
	}}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}

	// A nested type change contributes exactly one entry.
	left := obj("a", obj("deep", []any{int64(1), int64(2)}))
	right := obj("a", "flat")
	got = Diff(left, right, false)
	want = []Change{{
		Path:      "a",
		Kind:      KindTypeChanged,
		LeftType:  "object",
		RightType: "string",
		Left:      obj("deep", []any{int64(1), int64(2)}),
		Right:     "flat",
	}}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffNumericKind(t *testing.T) {
	t.Parallel()

	if got := Diff(int64(1), 1.0, false); len(got) != 0 {
		t.Fatalf("Diff(1, 1.0) = %v, want empty", got)
	}

	got := Diff(int64(1), 1.5, false)
	want := []Change{{Path: "$", Kind: KindChanged, Left: int64(1), Right: 1.5}}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffArraysOrdered(t *testing.T) {
	t.Parallel()

	got := Diff([]any{int64(1), int64(2), int64(3)}, []any{int64(3), int64(2), int64(1)}, false)
	want := []Change{
		{Path: "[0]", Kind: KindChanged, Left: int64(1), Right: int64(3)},
		{Path: "[2]", Kind: KindChanged, Left: int64(3), Right: int64(1)},
	}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffArrayTails(t *testing.T) {
	t.Parallel()

	got := Diff([]any{int64(1)}, []any{int64(1), int64(2), int64(3)}, false)
	want := []Change{
		{Path: "[1]", Kind: KindAdded, Right: int64(2)},
		{Path: "[2]", Kind: KindAdded, Right: int64(3)},
	}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}

	got = Diff([]any{int64(1), int64(2)}, []any{int64(1)}, false)
	want = []Change{{Path: "[1]", Kind: KindRemoved, Left: int64(2)}}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffArraysIgnoreOrder(t *testing.T) {
	t.Parallel()

	if got := Diff([]any{int64(1), int64(2), int64(3)}, []any{int64(3), int64(2), int64(1)}, true); len(got) != 0 {
		t.Fatalf("Diff(perm, ignore order) = %v, want empty", got)
	}

	// Key order inside elements is irrelevant under the canonical encoding.
	left := []any{obj("a", int64(1), "b", int64(2))}
	right := []any{obj("b", int64(2), "a", int64(1))}
	if got := Diff(left, right, true); len(got) != 0 {
		t.Fatalf("Diff(reordered keys, ignore order) = %v, want empty", got)
	}

	got := Diff([]any{int64(1), int64(1), int64(2)}, []any{int64(1), int64(2), int64(2)}, true)
	if len(got) != 1 || got[0].Kind != KindArraySetChanged || got[0].Path != "$" {
		t.Fatalf("Diff(multiset mismatch) = %v, want single array_set_change at $", got)
	}
}

func TestDiffNestedPaths(t *testing.T) {
	t.Parallel()

	left := obj("orders", []any{obj("sku", "a")})
	right := obj("orders", []any{obj("sku", "b")})

	got := Diff(left, right, false)
	want := []Change{{Path: "orders[0].sku", Kind: KindChanged, Left: "a", Right: "b"}}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestChangeMarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		change Change
		want   string
	}{
		{
			name:   "added",
			change: Change{Path: "c", Kind: KindAdded, Right: int64(3)},
			want:   `{"path":"c","kind":"added","right":3}`,
		},
		{
			name:   "removed",
			change: Change{Path: "a", Kind: KindRemoved, Left: int64(1)},
			want:   `{"path":"a","kind":"removed","left":1}`,
		},
		{
			name:   "type_change",
			change: Change{Path: "$", Kind: KindTypeChanged, LeftType: "int", RightType: "string", Left: int64(1), Right: "1"},
			want:   `{"path":"$","kind":"type_change","left_type":"int","right_type":"string","left":1,"right":"1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.change.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}
