package predicate

import (
	"errors"
	"testing"

	"github.com/yzaremba/rt/internal/value"
)

func record(pairs ...any) *value.Object {
	o := value.NewObject()
	for i := 0; i < len(pairs); i += 2 {
		o.Set(pairs[i].(string), pairs[i+1])
	}
	return o
}

func TestWhere(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		expr   string
		record any
		want   bool
	}{
		{name: "int_ge_match", expr: "age>=21", record: record("age", int64(30)), want: true},
		{name: "int_ge_no_match", expr: "age>=21", record: record("age", int64(18)), want: false},
		{name: "float_vs_int", expr: "score>2", record: record("score", 2.5), want: true},
		{name: "string_eq", expr: `name=="bob"`, record: record("name", "bob"), want: true},
		{name: "string_lt", expr: "name<b", record: record("name", "alice"), want: true},
		{name: "ne_matches_missing_kind", expr: "age!=21", record: record("age", "n/a"), want: true},
		{name: "order_skips_kind_mismatch", expr: "age>21", record: record("age", "n/a"), want: false},
		{name: "bool_literal", expr: "active==true", record: record("active", true), want: true},
		{name: "null_literal", expr: "ref==null", record: record("ref", nil), want: true},
		{name: "int_eq_float_value", expr: "n==1", record: record("n", 1.0), want: true},
		{name: "missing_field", expr: "age>=21", record: record("name", "x"), want: false},
		{
			name:   "wildcard_any_match",
			expr:   "items[*].qty>10",
			record: record("items", []any{record("qty", int64(1)), record("qty", int64(50))}),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Where(tt.expr)
			if err != nil {
				t.Fatalf("Where(%q) error = %v", tt.expr, err)
			}
			if got := pred(tt.record); got != tt.want {
				t.Fatalf("Where(%q)(%v) = %v, want %v", tt.expr, tt.record, got, tt.want)
			}
		})
	}
}

func TestWhereInvalid(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "age", "age~21"} {
		if _, err := Where(expr); !errors.Is(err, ErrInvalidExpression) {
			t.Fatalf("Where(%q) error = %v, want ErrInvalidExpression", expr, err)
		}
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	rec := record("a", record("b", nil))

	pred, err := Exists("a.b", false)
	if err != nil {
		t.Fatalf("Exists error = %v", err)
	}
	if !pred(rec) {
		t.Fatal("Exists(a.b) = false, want true for present null")
	}

	inverted, err := Exists("a.c", true)
	if err != nil {
		t.Fatalf("Exists error = %v", err)
	}
	if !inverted(rec) {
		t.Fatal("not-exists(a.c) = false, want true")
	}
}

func TestTypeIs(t *testing.T) {
	t.Parallel()

	pred, err := TypeIs("age=int")
	if err != nil {
		t.Fatalf("TypeIs error = %v", err)
	}
	if !pred(record("age", int64(3))) {
		t.Fatal("TypeIs(age=int) = false for int value")
	}
	if pred(record("age", "3")) {
		t.Fatal("TypeIs(age=int) = true for string value")
	}

	if _, err := TypeIs("age=integer"); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("TypeIs(age=integer) error = %v, want ErrInvalidExpression", err)
	}
	if _, err := TypeIs("age"); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("TypeIs(age) error = %v, want ErrInvalidExpression", err)
	}
}

func TestContainsAndRegex(t *testing.T) {
	t.Parallel()

	contains, err := Contains("name:ob")
	if err != nil {
		t.Fatalf("Contains error = %v", err)
	}
	if !contains(record("name", "bob")) || contains(record("name", "alice")) {
		t.Fatal("Contains(name:ob) mismatch")
	}
	if contains(record("name", int64(7))) {
		t.Fatal("Contains matched a non-string value")
	}

	rx, err := Regex(`email:@example\.com$`)
	if err != nil {
		t.Fatalf("Regex error = %v", err)
	}
	if !rx(record("email", "a@example.com")) || rx(record("email", "a@other.org")) {
		t.Fatal("Regex(email:@example.com$) mismatch")
	}

	if _, err := Regex("email:["); !errors.Is(err, ErrInvalidRegex) {
		t.Fatalf("Regex(invalid) error = %v, want ErrInvalidRegex", err)
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	yes := Predicate(func(any) bool { return true })
	no := Predicate(func(any) bool { return false })

	tests := []struct {
		name  string
		preds []Predicate
		useOr bool
		want  bool
	}{
		{name: "empty_matches", preds: nil, want: true},
		{name: "and_all_pass", preds: []Predicate{yes, yes}, want: true},
		{name: "and_one_fails", preds: []Predicate{yes, no}, want: false},
		{name: "or_one_passes", preds: []Predicate{no, yes}, useOr: true, want: true},
		{name: "or_none_pass", preds: []Predicate{no, no}, useOr: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Combine(tt.preds, tt.useOr)(nil); got != tt.want {
				t.Fatalf("Combine() = %v, want %v", got, tt.want)
			}
		})
	}
}
