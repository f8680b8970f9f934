package cli

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/yzaremba/rt/internal/csvio"
	"github.com/yzaremba/rt/internal/value"
)

// rowChange describes one difference between two tables. Keyed diffs
// carry Key; row-order diffs carry RowIndex.
type rowChange struct {
	Kind     string
	Key      []string
	RowIndex int
	HasIndex bool
	Left     *value.Object
	Right    *value.Object
}

// diffTables compares two tables either by key columns or, when none
// are given, by row position.
func diffTables(left, right *csvio.Table, keyCols []string) []rowChange {
	if len(keyCols) > 0 {
		return diffByKey(left, right, keyCols)
	}
	return diffByOrder(left, right)
}

func rowKey(row map[string]string, keyCols []string) string {
	parts := make([]string, len(keyCols))
	for i, c := range keyCols {
		parts[i] = strings.TrimSpace(row[c])
	}
	return strings.Join(parts, "\x1f")
}

func keyParts(key string) []string {
	return strings.Split(key, "\x1f")
}

func diffByKey(left, right *csvio.Table, keyCols []string) []rowChange {
	// Later duplicates win, matching a plain key -> row index build.
	leftByKey := make(map[string]map[string]string, len(left.Rows))
	leftOrder := make([]string, 0, len(left.Rows))
	for _, row := range left.Rows {
		k := rowKey(row, keyCols)
		if _, seen := leftByKey[k]; !seen {
			leftOrder = append(leftOrder, k)
		}
		leftByKey[k] = row
	}
	rightByKey := make(map[string]map[string]string, len(right.Rows))
	rightOrder := make([]string, 0, len(right.Rows))
	for _, row := range right.Rows {
		k := rowKey(row, keyCols)
		if _, seen := rightByKey[k]; !seen {
			rightOrder = append(rightOrder, k)
		}
		rightByKey[k] = row
	}

	var changes []rowChange
	for _, k := range leftOrder {
		if _, ok := rightByKey[k]; !ok {
			changes = append(changes, rowChange{
				Kind: "removed",
				Key:  keyParts(k),
				Left: orderedRow(left.Columns, leftByKey[k]),
			})
		}
	}
	for _, k := range rightOrder {
		if _, ok := leftByKey[k]; !ok {
			changes = append(changes, rowChange{
				Kind:  "added",
				Key:   keyParts(k),
				Right: orderedRow(right.Columns, rightByKey[k]),
			})
		}
	}
	for _, k := range leftOrder {
		rr, ok := rightByKey[k]
		if !ok {
			continue
		}
		lr := leftByKey[k]
		if !rowsEqual(lr, rr) {
			changes = append(changes, rowChange{
				Kind:  "changed",
				Key:   keyParts(k),
				Left:  orderedRow(left.Columns, lr),
				Right: orderedRow(right.Columns, rr),
			})
		}
	}
	return changes
}

func diffByOrder(left, right *csvio.Table) []rowChange {
	var changes []rowChange
	common := len(left.Rows)
	if len(right.Rows) < common {
		common = len(right.Rows)
	}
	for i := 0; i < common; i++ {
		if !rowsEqual(left.Rows[i], right.Rows[i]) {
			changes = append(changes, rowChange{
				Kind:     "changed",
				RowIndex: i,
				HasIndex: true,
				Left:     orderedRow(left.Columns, left.Rows[i]),
				Right:    orderedRow(right.Columns, right.Rows[i]),
			})
		}
	}
	for i := common; i < len(left.Rows); i++ {
		changes = append(changes, rowChange{
			Kind:     "removed",
			RowIndex: i,
			HasIndex: true,
			Left:     orderedRow(left.Columns, left.Rows[i]),
		})
	}
	for i := common; i < len(right.Rows); i++ {
		changes = append(changes, rowChange{
			Kind:     "added",
			RowIndex: i,
			HasIndex: true,
			Right:    orderedRow(right.Columns, right.Rows[i]),
		})
	}
	return changes
}

func rowsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func orderedRow(columns []string, row map[string]string) *value.Object {
	obj := value.NewObject()
	for _, col := range columns {
		obj.Set(col, row[col])
	}
	return obj
}

func rowChangeObjects(changes []rowChange) []any {
	out := make([]any, len(changes))
	for i, c := range changes {
		obj := value.NewObject()
		obj.Set("kind", c.Kind)
		if c.HasIndex {
			obj.Set("row_index", int64(c.RowIndex))
		} else {
			obj.Set("key", toAnySlice(c.Key))
		}
		if c.Left != nil {
			obj.Set("left", c.Left)
		}
		if c.Right != nil {
			obj.Set("right", c.Right)
		}
		out[i] = obj
	}
	return out
}

func writeRowDiffText(w io.Writer, changes []rowChange) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "No differences.")
		return err
	}
	ident := func(c rowChange) string {
		if c.HasIndex {
			return fmt.Sprintf("%d", c.RowIndex)
		}
		raw, _ := json.Marshal(toAnySlice(c.Key))
		return string(raw)
	}
	for _, c := range changes {
		var err error
		switch c.Kind {
		case "removed":
			raw, _ := json.Marshal(c.Left)
			_, err = fmt.Fprintf(w, "- removed: %s %s\n", ident(c), raw)
		case "added":
			raw, _ := json.Marshal(c.Right)
			_, err = fmt.Fprintf(w, "+ added: %s %s\n", ident(c), raw)
		default:
			_, err = fmt.Fprintf(w, "~ changed: %s\n", ident(c))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
