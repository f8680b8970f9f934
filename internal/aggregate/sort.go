package aggregate

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yzaremba/rt/internal/extractor"
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/value"
)

// SortRecords orders records by the first value of each field path.
// Numeric mode compares as floats, with missing or non-numeric values
// sinking to negative infinity; text mode compares display strings, with
// missing values as "". The sort is stable; desc reverses it.
func SortRecords(records []any, byFields []string, numeric, desc bool) ([]any, error) {
	exprs := make([]path.Expression, len(byFields))
	for i, f := range byFields {
		expr, err := path.Compile(f)
		if err != nil {
			return nil, err
		}
		exprs[i] = expr
	}

	type keyed struct {
		record any
		nums   []float64
		texts  []string
	}
	keys := make([]keyed, len(records))
	for i, record := range records {
		k := keyed{record: record}
		for _, expr := range exprs {
			v := extractor.First(record, expr, nil)
			if numeric {
				k.nums = append(k.nums, numericKey(v))
			} else {
				k.texts = append(k.texts, textKey(v))
			}
		}
		keys[i] = k
	}

	sort.SliceStable(keys, func(i, j int) bool {
		c := compareSortKeys(keys[i].nums, keys[j].nums, keys[i].texts, keys[j].texts, numeric)
		if desc {
			return c > 0
		}
		return c < 0
	})

	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k.record
	}
	return out, nil
}

// SortRows orders CSV rows by trimmed cell values, with the same numeric
// and descending semantics as SortRecords.
func SortRows(rows []map[string]string, byFields []string, numeric, desc bool) []map[string]string {
	type keyed struct {
		row   map[string]string
		nums  []float64
		texts []string
	}
	keys := make([]keyed, len(rows))
	for i, row := range rows {
		k := keyed{row: row}
		for _, f := range byFields {
			cell := strings.TrimSpace(row[f])
			if numeric {
				n := math.Inf(-1)
				if cell != "" {
					if f, err := strconv.ParseFloat(cell, 64); err == nil {
						n = f
					}
				}
				k.nums = append(k.nums, n)
			} else {
				k.texts = append(k.texts, cell)
			}
		}
		keys[i] = k
	}

	sort.SliceStable(keys, func(i, j int) bool {
		c := compareSortKeys(keys[i].nums, keys[j].nums, keys[i].texts, keys[j].texts, numeric)
		if desc {
			return c > 0
		}
		return c < 0
	})

	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = k.row
	}
	return out
}

func compareSortKeys(aNums, bNums []float64, aTexts, bTexts []string, numeric bool) int {
	if numeric {
		for i := range aNums {
			switch {
			case aNums[i] < bNums[i]:
				return -1
			case aNums[i] > bNums[i]:
				return 1
			}
		}
		return 0
	}
	for i := range aTexts {
		if c := strings.Compare(aTexts[i], bTexts[i]); c != 0 {
			return c
		}
	}
	return 0
}

func numericKey(v any) float64 {
	if f, ok := value.ToFloat64(v); ok {
		return f
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return math.Inf(-1)
}

func textKey(v any) string {
	if v == nil {
		return ""
	}
	return value.Display(v)
}
