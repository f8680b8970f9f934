package aggregate

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    Spec
		wantErr bool
	}{
		{name: "bare_count", raw: "count", want: Spec{Func: "count"}},
		{name: "bare_count_mixed_case", raw: " Count ", want: Spec{Func: "count"}},
		{name: "field_func", raw: "age:mean", want: Spec{Field: "age", Func: "mean"}},
		{name: "last_colon_splits", raw: "a:b:sum", want: Spec{Field: "a:b", Func: "sum"}},
		{name: "upper_func", raw: "age:MAX", want: Spec{Field: "age", Func: "max"}},
		{name: "missing_colon", raw: "age", wantErr: true},
		{name: "unknown_func", raw: "age:median", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSpec) {
					t.Fatalf("ParseSpec(%q) error = %v, want ErrInvalidSpec", tt.raw, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseSpec(%q) = %+v, %v, want %+v", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []any
		fn     string
		want   any
	}{
		{name: "count", values: []any{int64(1), "x"}, fn: "count", want: int64(2)},
		{name: "sum_ints_stays_int", values: []any{int64(1), int64(2)}, fn: "sum", want: int64(3)},
		{name: "sum_mixed_is_float", values: []any{int64(1), 2.5}, fn: "sum", want: 3.5},
		{name: "sum_skips_non_numeric", values: []any{int64(1), "x", int64(4)}, fn: "sum", want: int64(5)},
		{name: "min", values: []any{int64(3), int64(1), int64(2)}, fn: "min", want: int64(1)},
		{name: "max_float", values: []any{1.5, 0.5}, fn: "max", want: 1.5},
		{name: "mean_always_float", values: []any{int64(1), int64(2)}, fn: "mean", want: 1.5},
		{name: "numeric_over_no_numbers", values: []any{"a", "b"}, fn: "sum", want: nil},
		{name: "list", values: []any{int64(1), int64(1)}, fn: "list", want: []any{int64(1), int64(1)}},
		{
			name:   "unique_first_seen",
			values: []any{int64(1), 1.0, "a", int64(1), "a"},
			fn:     "unique",
			want:   []any{int64(1), "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.values, tt.fn)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Apply(%v, %q) = %v (%T), want %v (%T)", tt.values, tt.fn, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestApplyCells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []string
		fn     string
		want   any
	}{
		{name: "count", values: []string{"a", ""}, fn: "count", want: int64(2)},
		{name: "sum_parses_floats", values: []string{"1", "2.5", "", "x"}, fn: "sum", want: 3.5},
		{name: "mean", values: []string{"2", "4"}, fn: "mean", want: 3.0},
		{name: "min", values: []string{"3", "1", "2"}, fn: "min", want: 1.0},
		{name: "no_numbers", values: []string{"x", ""}, fn: "max", want: nil},
		{name: "unique", values: []string{"a", "b", "a"}, fn: "unique", want: []any{"a", "b"}},
		{name: "list_keeps_blanks", values: []string{"a", ""}, fn: "list", want: []any{"a", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyCells(tt.values, tt.fn)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ApplyCells(%v, %q) = %v, want %v", tt.values, tt.fn, got, tt.want)
			}
		})
	}
}
