package cli

import (
	"strings"
	"testing"

	"github.com/yzaremba/rt/internal/csvio"
)

func parseTable(t *testing.T, text string) *csvio.Table {
	t.Helper()

	parsed, err := csvio.Parse(text, csvio.Options{Delimiter: ','})
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func TestDiffTablesByKey(t *testing.T) {
	t.Parallel()

	left := parseTable(t, "id,v\n1,a\n2,b\n3,c\n")
	right := parseTable(t, "id,v\n1,a\n2,B\n4,d\n")

	changes := diffTables(left, right, []string{"id"})
	if len(changes) != 3 {
		t.Fatalf("changes = %d, want 3", len(changes))
	}

	byKind := make(map[string]rowChange)
	for _, c := range changes {
		byKind[c.Kind] = c
	}
	if c := byKind["removed"]; len(c.Key) != 1 || c.Key[0] != "3" {
		t.Fatalf("removed key = %v", c.Key)
	}
	if c := byKind["added"]; len(c.Key) != 1 || c.Key[0] != "4" {
		t.Fatalf("added key = %v", c.Key)
	}
	changed := byKind["changed"]
	if len(changed.Key) != 1 || changed.Key[0] != "2" {
		t.Fatalf("changed key = %v", changed.Key)
	}
	if v, _ := changed.Right.Get("v"); v != "B" {
		t.Fatalf("changed right v = %v", v)
	}
}

func TestDiffTablesByOrder(t *testing.T) {
	t.Parallel()

	left := parseTable(t, "id\n1\n2\n")
	right := parseTable(t, "id\n1\n3\n4\n")

	changes := diffTables(left, right, nil)
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}
	if changes[0].Kind != "changed" || changes[0].RowIndex != 1 {
		t.Fatalf("changes[0] = %+v", changes[0])
	}
	if changes[1].Kind != "added" || changes[1].RowIndex != 2 {
		t.Fatalf("changes[1] = %+v", changes[1])
	}
}

func TestWriteRowDiffText(t *testing.T) {
	t.Parallel()

	left := parseTable(t, "id,v\n1,a\n")
	right := parseTable(t, "id,v\n2,b\n")
	changes := diffTables(left, right, []string{"id"})

	var buf strings.Builder
	if err := writeRowDiffText(&buf, changes); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := `- removed: ["1"] {"id":"1","v":"a"}` + "\n" +
		`+ added: ["2"] {"id":"2","v":"b"}` + "\n"
	if got != want {
		t.Fatalf("diff text = %q, want %q", got, want)
	}
}
