package predicate

import (
	"errors"
	"testing"
)

func TestCellWhere(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		row  map[string]string
		want bool
	}{
		{name: "eq", expr: "status==ok", row: map[string]string{"status": "ok"}, want: true},
		{name: "quoted_rhs", expr: `fee!="$0.00"`, row: map[string]string{"fee": "$1.50"}, want: true},
		{name: "lexicographic_gt", expr: "name>m", row: map[string]string{"name": "zed"}, want: true},
		{name: "missing_column_is_empty", expr: "status==", row: map[string]string{}, want: false},
		{name: "le", expr: "grade<=b", row: map[string]string{"grade": "a"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := CellWhere(tt.expr)
			if tt.name == "missing_column_is_empty" {
				// "status==" has an empty right side, which the grammar rejects.
				if !errors.Is(err, ErrInvalidExpression) {
					t.Fatalf("CellWhere(%q) error = %v, want ErrInvalidExpression", tt.expr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CellWhere(%q) error = %v", tt.expr, err)
			}
			if got := pred(tt.row); got != tt.want {
				t.Fatalf("CellWhere(%q)(%v) = %v, want %v", tt.expr, tt.row, got, tt.want)
			}
		})
	}
}

func TestCellIn(t *testing.T) {
	t.Parallel()

	pred, err := CellIn("region: us-east, us-west")
	if err != nil {
		t.Fatalf("CellIn error = %v", err)
	}
	if !pred(map[string]string{"region": "us-west"}) {
		t.Fatal("CellIn missed a listed value")
	}
	if !pred(map[string]string{"region": "  us-east "}) {
		t.Fatal("CellIn should trim the cell before matching")
	}
	if pred(map[string]string{"region": "eu-central"}) {
		t.Fatal("CellIn matched an unlisted value")
	}

	if _, err := CellIn("region"); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("CellIn(no colon) error = %v, want ErrInvalidExpression", err)
	}
}

func TestCellContainsAndRegex(t *testing.T) {
	t.Parallel()

	contains, err := CellContains("msg:time")
	if err != nil {
		t.Fatalf("CellContains error = %v", err)
	}
	if !contains(map[string]string{"msg": "timeout"}) || contains(map[string]string{"msg": "ok"}) {
		t.Fatal("CellContains mismatch")
	}

	rx, err := CellRegex(`id:^\d+$`)
	if err != nil {
		t.Fatalf("CellRegex error = %v", err)
	}
	if !rx(map[string]string{"id": "123"}) || rx(map[string]string{"id": "12a"}) {
		t.Fatal("CellRegex mismatch")
	}

	if _, err := CellRegex("id:("); !errors.Is(err, ErrInvalidRegex) {
		t.Fatalf("CellRegex(invalid) error = %v, want ErrInvalidRegex", err)
	}
}

func TestCellEmpty(t *testing.T) {
	t.Parallel()

	empty := CellEmpty("note", false)
	if !empty(map[string]string{"note": "  "}) {
		t.Fatal("CellEmpty(whitespace) = false, want true")
	}
	if !empty(map[string]string{}) {
		t.Fatal("CellEmpty(missing column) = false, want true")
	}
	if empty(map[string]string{"note": "x"}) {
		t.Fatal("CellEmpty(non-empty) = true, want false")
	}

	nonEmpty := CellEmpty("note", true)
	if !nonEmpty(map[string]string{"note": "x"}) || nonEmpty(map[string]string{"note": ""}) {
		t.Fatal("CellEmpty inverted mismatch")
	}
}

func TestCombineRows(t *testing.T) {
	t.Parallel()

	yes := RowPredicate(func(map[string]string) bool { return true })
	no := RowPredicate(func(map[string]string) bool { return false })

	if !CombineRows(nil, false)(nil) {
		t.Fatal("CombineRows(empty) = false, want true")
	}
	if CombineRows([]RowPredicate{yes, no}, false)(nil) {
		t.Fatal("CombineRows(and) = true, want false")
	}
	if !CombineRows([]RowPredicate{no, yes}, true)(nil) {
		t.Fatal("CombineRows(or) = false, want true")
	}
}
