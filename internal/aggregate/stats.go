package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yzaremba/rt/internal/extractor"
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/value"
)

// ValueCount is one entry of a value frequency table.
type ValueCount struct {
	Value string
	Count int
}

// FieldStats summarizes one field path across records: presence,
// observed types, distinct value count, the top frequent values (only
// when every value is scalar) and a numeric summary when any value is
// numeric.
func FieldStats(records []any, field string, top int) (*value.Object, error) {
	expr, err := path.Compile(field)
	if err != nil {
		return nil, err
	}

	var values []any
	presence := 0
	for _, record := range records {
		found := extractor.Extract(record, expr)
		if len(found) > 0 {
			presence++
			values = append(values, found...)
		}
	}

	counts := CountValues(values)
	hasComplex := false
	for _, v := range values {
		switch v.(type) {
		case *value.Object, []any:
			hasComplex = true
		}
	}

	entry := value.NewObject()
	entry.Set("presence", fmt.Sprintf("%d/%d", presence, len(records)))
	entry.Set("types", value.UniqueTypes(values))
	entry.Set("unique_values", int64(len(counts)))
	if !hasComplex {
		entry.Set("top_values", topValueRows(TopN(counts, top)))
	}
	if numeric := NumericSummary(values); numeric != nil {
		entry.Set("numeric", numeric)
	}
	return entry, nil
}

// ColumnStats summarizes one CSV column: presence counts non-blank
// cells, frequencies count raw cell text.
func ColumnStats(rows []map[string]string, col string, top int) *value.Object {
	values := make([]string, len(rows))
	presence := 0
	for i, row := range rows {
		values[i] = row[col]
		if strings.TrimSpace(values[i]) != "" {
			presence++
		}
	}

	counts := CountCells(values)
	entry := value.NewObject()
	entry.Set("presence", fmt.Sprintf("%d/%d", presence, len(rows)))
	entry.Set("unique_values", int64(len(counts)))
	entry.Set("top_values", topValueRows(TopN(counts, top)))
	if numeric := NumericSummaryCells(values); numeric != nil {
		entry.Set("numeric", numeric)
	}
	return entry
}

// DefaultFields returns the sorted union of top-level keys across object
// records, for stats runs that do not name fields.
func DefaultFields(records []any) []string {
	seen := make(map[string]struct{})
	for _, record := range records {
		if obj, ok := record.(*value.Object); ok {
			for _, k := range obj.Keys() {
				seen[k] = struct{}{}
			}
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// NumericSummary reports count, min, max and mean over the numeric
// values, or nil when there are none.
func NumericSummary(values []any) *value.Object {
	var nums []float64
	for _, v := range values {
		if f, ok := value.ToFloat64(v); ok {
			nums = append(nums, f)
		}
	}
	return summarize(nums)
}

// NumericSummaryCells is NumericSummary over CSV cells; blank and
// non-numeric cells are skipped.
func NumericSummaryCells(values []string) *value.Object {
	return summarize(parseCells(values))
}

func summarize(nums []float64) *value.Object {
	if len(nums) == 0 {
		return nil
	}
	minV, maxV, sum := nums[0], nums[0], 0.0
	for _, n := range nums {
		if n < minV {
			minV = n
		}
		if n > maxV {
			maxV = n
		}
		sum += n
	}
	out := value.NewObject()
	out.Set("count", int64(len(nums)))
	out.Set("min", minV)
	out.Set("max", maxV)
	out.Set("mean", sum/float64(len(nums)))
	return out
}

// CountValues builds a frequency table keyed by display text, in
// first-seen order. Containers count by their canonical text.
func CountValues(values []any) []ValueCount {
	index := make(map[string]int)
	var counts []ValueCount
	for _, v := range values {
		key := value.Display(v)
		if at, ok := index[key]; ok {
			counts[at].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, ValueCount{Value: key, Count: 1})
	}
	return counts
}

// CountCells builds a frequency table over raw cell text, in first-seen
// order.
func CountCells(values []string) []ValueCount {
	index := make(map[string]int)
	var counts []ValueCount
	for _, v := range values {
		if at, ok := index[v]; ok {
			counts[at].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, ValueCount{Value: v, Count: 1})
	}
	return counts
}

// TopN returns the n most frequent entries, ordered by descending count
// with first appearance breaking ties. Negative n yields an empty list.
func TopN(counts []ValueCount, n int) []ValueCount {
	ranked := make([]ValueCount, len(counts))
	copy(ranked, counts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

func topValueRows(counts []ValueCount) []any {
	rows := make([]any, len(counts))
	for i, c := range counts {
		row := value.NewObject()
		row.Set("value", c.Value)
		row.Set("count", int64(c.Count))
		rows[i] = row
	}
	return rows
}
