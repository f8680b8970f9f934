package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/predicate"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	var stdout, stderr strings.Builder
	app := &App{stdout: &stdout, stderr: &stderr, logger: zap.NewNop()}
	root := app.Root()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("rt %s: %v", strings.Join(args, " "), err)
	}
	return stdout.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestJSONFilterWhere(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json",
		`[{"name":"amy","age":34},{"name":"bo","age":21}]`)
	got := runCommand(t, "json", "filter", input, "--where", "age>=30", "--compact")
	want := `[{"name":"amy","age":34}]` + "\n"
	if got != want {
		t.Fatalf("filter output = %q, want %q", got, want)
	}
}

func TestJSONExtractFields(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json",
		`{"users":[{"id":1,"name":"amy","extra":true},{"id":2,"name":"bo"}]}`)
	got := runCommand(t, "json", "extract", input,
		"--array-path", "users", "--fields", "name", "--compact")
	want := `[{"name":"amy"},{"name":"bo"}]` + "\n"
	if got != want {
		t.Fatalf("extract output = %q, want %q", got, want)
	}
}

func TestJSONGroupCounts(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json",
		`[{"dept":"eng"},{"dept":"eng"},{"dept":"ops"}]`)
	got := runCommand(t, "json", "group", input, "--by", "dept", "--compact")
	want := `{"total_records":3,"total_groups":2,"groups":[` +
		`{"dept":"eng","count":2},{"dept":"ops","count":1}]}` + "\n"
	if got != want {
		t.Fatalf("group output = %q, want %q", got, want)
	}
}

func TestJSONSortDescNumeric(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json",
		`[{"n":2},{"n":10},{"n":1}]`)
	got := runCommand(t, "json", "sort", input, "--by", "n", "--numeric", "--desc", "--compact")
	want := `[{"n":10},{"n":2},{"n":1}]` + "\n"
	if got != want {
		t.Fatalf("sort output = %q, want %q", got, want)
	}
}

func TestJSONDiffTextNoDifferences(t *testing.T) {
	t.Parallel()

	left := writeFile(t, "left.json", `{"a":1}`)
	right := writeFile(t, "right.json", `{"a":1}`)
	got := runCommand(t, "json", "diff", left, right, "--format", "text")
	if got != "No differences.\n" {
		t.Fatalf("diff output = %q, want no-differences line", got)
	}
}

func TestJSONDiffChanges(t *testing.T) {
	t.Parallel()

	left := writeFile(t, "left.json", `{"a":1,"b":2}`)
	right := writeFile(t, "right.json", `{"a":1,"b":3}`)
	got := runCommand(t, "json", "diff", left, right, "--format", "text")
	if got != "~ b: 2 -> 3\n" {
		t.Fatalf("diff output = %q", got)
	}
}

func TestJSONMergeConcatUniqueBy(t *testing.T) {
	t.Parallel()

	first := writeFile(t, "a.json", `[{"id":1,"v":"a"},{"id":2,"v":"b"}]`)
	second := writeFile(t, "b.json", `[{"id":2,"v":"dup"},{"id":3,"v":"c"}]`)
	got := runCommand(t, "json", "merge", first, second,
		"--unique-by", "id", "--compact")
	want := `[{"id":1,"v":"a"},{"id":2,"v":"b"},{"id":3,"v":"c"}]` + "\n"
	if got != want {
		t.Fatalf("merge output = %q, want %q", got, want)
	}
}

func TestJSONTransformToJSONL(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json", `[{"a":1},{"a":2}]`)
	got := runCommand(t, "json", "transform", input, "--to", "jsonl")
	want := `{"a":1}` + "\n" + `{"a":2}` + "\n"
	if got != want {
		t.Fatalf("transform output = %q, want %q", got, want)
	}
}

func TestJSONTransformToCSVFlattens(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json",
		`[{"user":{"name":"amy"},"tags":["x","y"]}]`)
	got := runCommand(t, "json", "transform", input, "--to", "csv")
	want := "tags[0],tags[1],user.name\nx,y,amy\n"
	if got != want {
		t.Fatalf("transform output = %q, want %q", got, want)
	}
}

func TestJSONProbeArray(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json", `[{"a":1},{"a":2,"b":3}]`)
	got := runCommand(t, "json", "probe", input)
	for _, want := range []string{
		`"layout": "array"`,
		`"record_count": 2`,
		`"valid": true`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("probe output missing %q:\n%s", want, got)
		}
	}
}

func TestJSONValidateStrictTrailingComma(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.json", `{"a": [1, 2,]}`)
	got := runCommand(t, "json", "validate", input, "--strict")
	if !strings.Contains(got, `"valid": false`) {
		t.Fatalf("validate output missing invalid flag:\n%s", got)
	}
	if !strings.Contains(got, "Possible trailing comma detected.") {
		t.Fatalf("validate output missing warning:\n%s", got)
	}
}

func TestYAMLInputByExtension(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.yaml", "- name: amy\n- name: bo\n")
	got := runCommand(t, "json", "extract", input, "--fields", "name", "--compact")
	want := `[{"name":"amy"},{"name":"bo"}]` + "\n"
	if got != want {
		t.Fatalf("yaml extract output = %q, want %q", got, want)
	}
}

func TestCSVExtractFields(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "id,name,age\n1,amy,34\n2,bo,21\n")
	got := runCommand(t, "csv", "extract", input, "--fields", "id,name")
	want := "id,name\n1,amy\n2,bo\n"
	if got != want {
		t.Fatalf("extract output = %q, want %q", got, want)
	}
}

func TestCSVFilterWhereJSON(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "id,status\n1,active\n2,closed\n")
	got := runCommand(t, "csv", "filter", input,
		"--where", "status==active", "--format", "json", "--compact")
	want := `[{"id":"1","status":"active"}]` + "\n"
	if got != want {
		t.Fatalf("filter output = %q, want %q", got, want)
	}
}

func TestCSVProbeDetectsSemicolon(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "a;b\n1;2\n3;4\n")
	got := runCommand(t, "csv", "probe", input, "--compact")
	want := `{"valid":true,"delimiter":";","has_header":true,"header_row":1,` +
		`"record_count":2,"columns":["a","b"],"size_bytes":12,` +
		`"sample_row":{"a":"1","b":"2"}}` + "\n"
	if got != want {
		t.Fatalf("probe output = %q, want %q", got, want)
	}
}

func TestCSVValidateStrictFooter(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "a,b\n1,2\ntotal\n")
	got := runCommand(t, "csv", "validate", input, "--strict", "--compact")
	want := `{"valid":false,"record_count":1,"skipped_rows":1,` +
		`"expected_columns":2,"size_bytes":14,` +
		`"error":"Inconsistent column count: 1 row(s) skipped (footer/comment lines)."}` + "\n"
	if got != want {
		t.Fatalf("validate output = %q, want %q", got, want)
	}
}

func TestCSVGroupCounts(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "dept,age\neng,30\neng,20\nops,40\n")
	got := runCommand(t, "csv", "group", input,
		"--by", "dept", "--agg", "age:mean", "--compact")
	want := `{"total_records":3,"total_groups":2,"groups":[` +
		`{"dept":"eng","count":2,"age:mean":25},` +
		`{"dept":"ops","count":1,"age:mean":40}]}` + "\n"
	if got != want {
		t.Fatalf("group output = %q, want %q", got, want)
	}
}

func TestCSVStatsTable(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "n\n1\n2\n")
	got := runCommand(t, "csv", "stats", input, "--format", "table")
	for _, want := range []string{"2/2", "1.5"} {
		if !strings.Contains(got, want) {
			t.Fatalf("stats table missing %q:\n%s", want, got)
		}
	}
}

func TestCSVGroupTable(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "dept\neng\neng\nops\n")
	got := runCommand(t, "csv", "group", input, "--by", "dept", "--format", "table")
	for _, want := range []string{"DEPT", "COUNT", "eng", "ops"} {
		if !strings.Contains(got, want) {
			t.Fatalf("group table missing %q:\n%s", want, got)
		}
	}
}

func TestCSVMergeUniqueBy(t *testing.T) {
	t.Parallel()

	first := writeFile(t, "a.csv", "id,v\n1,a\n2,b\n")
	second := writeFile(t, "b.csv", "id,v\n2,dup\n3,c\n")
	got := runCommand(t, "csv", "merge", first, second, "--unique-by", "id")
	want := "id,v\n1,a\n2,b\n3,c\n"
	if got != want {
		t.Fatalf("merge output = %q, want %q", got, want)
	}
}

func TestCSVSortNumeric(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "id,n\na,10\nb,2\nc,1\n")
	got := runCommand(t, "csv", "sort", input, "--by", "n", "--numeric")
	want := "id,n\nc,1\nb,2\na,10\n"
	if got != want {
		t.Fatalf("sort output = %q, want %q", got, want)
	}
}

func TestCSVReverse(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "id\n1\n2\n3\n")
	got := runCommand(t, "csv", "reverse", input)
	want := "id\n3\n2\n1\n"
	if got != want {
		t.Fatalf("reverse output = %q, want %q", got, want)
	}
}

func TestCSVTransformToJSON(t *testing.T) {
	t.Parallel()

	input := writeFile(t, "data.csv", "id,name\n1,amy\n")
	got := runCommand(t, "csv", "transform", input, "--to", "json", "--compact")
	want := `[{"id":"1","name":"amy"}]` + "\n"
	if got != want {
		t.Fatalf("transform output = %q, want %q", got, want)
	}
}

func TestSplitFields(t *testing.T) {
	t.Parallel()

	got := splitFields(" a , ,b,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitFields = %v", got)
	}
	if splitFields("") != nil {
		t.Fatalf("splitFields(empty) = %v, want nil", splitFields(""))
	}
}

func TestIsUsageError(t *testing.T) {
	t.Parallel()

	if !isUsageError(path.ErrInvalidPath) {
		t.Fatal("path error should be a usage error")
	}
	if !isUsageError(predicate.ErrInvalidExpression) {
		t.Fatal("predicate error should be a usage error")
	}
	if isUsageError(os.ErrNotExist) {
		t.Fatal("missing file is not a usage error")
	}
}

func TestRestrictToColumns(t *testing.T) {
	t.Parallel()

	columns := []string{"a", "b", "c"}
	got := restrictToColumns([]string{"c", "zz", "a"}, columns, columns)
	if len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Fatalf("restrictToColumns = %v", got)
	}
	got = restrictToColumns([]string{"zz"}, columns, columns[:1])
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("restrictToColumns fallback = %v", got)
	}
}
