package aggregate

import (
	"sort"
	"strings"

	"github.com/yzaremba/rt/internal/extractor"
	"github.com/yzaremba/rt/internal/path"
	"github.com/yzaremba/rt/internal/value"
)

// GroupResult is a grouped view of a record set. Each group row is an
// ordered object: the grouping fields first, then "count", then one
// column per aggregation label.
type GroupResult struct {
	TotalRecords int
	TotalGroups  int
	Groups       []*value.Object
}

// keySep joins composite key parts; a control character keeps distinct
// tuples from colliding.
const keySep = "\x1f"

// GroupRecords groups records by the first value of each field path.
// Container key values are replaced by their canonical text so that
// equal objects land in the same bucket. Groups sort by count
// (descending) or by key (ascending).
func GroupRecords(records []any, byFields []string, specs []Spec, sortMode string) (*GroupResult, error) {
	byExprs := make([]path.Expression, len(byFields))
	for i, f := range byFields {
		expr, err := path.Compile(f)
		if err != nil {
			return nil, err
		}
		byExprs[i] = expr
	}
	aggExprs := make([]path.Expression, len(specs))
	for i, s := range specs {
		if s.Field == "" {
			continue
		}
		expr, err := path.Compile(s.Field)
		if err != nil {
			return nil, err
		}
		aggExprs[i] = expr
	}

	type bucket struct {
		key     []any
		records []any
	}
	index := make(map[string]int)
	var buckets []*bucket
	for _, record := range records {
		key := make([]any, len(byExprs))
		tokens := make([]string, len(byExprs))
		for i, expr := range byExprs {
			v := extractor.First(record, expr, nil)
			switch v.(type) {
			case *value.Object, []any:
				v = value.Canonical(v)
			}
			key[i] = v
			tokens[i] = value.Canonical(v)
		}
		composite := strings.Join(tokens, keySep)
		at, ok := index[composite]
		if !ok {
			at = len(buckets)
			index[composite] = at
			buckets = append(buckets, &bucket{key: key})
		}
		buckets[at].records = append(buckets[at].records, record)
	}

	groups := make([]*value.Object, 0, len(buckets))
	for _, b := range buckets {
		row := value.NewObject()
		for i, field := range byFields {
			row.Set(field, b.key[i])
		}
		row.Set("count", int64(len(b.records)))
		for i, s := range specs {
			if s.Field == "" && s.Func == "count" {
				continue
			}
			var values []any
			for _, record := range b.records {
				if v := extractor.First(record, aggExprs[i], nil); v != nil {
					values = append(values, v)
				}
			}
			row.Set(s.Label(), Apply(values, s.Func))
		}
		groups = append(groups, row)
	}

	sortGroups(groups, byFields, sortMode)
	return &GroupResult{
		TotalRecords: len(records),
		TotalGroups:  len(groups),
		Groups:       groups,
	}, nil
}

// GroupRows groups CSV rows by trimmed cell values.
func GroupRows(rows []map[string]string, byFields []string, specs []Spec, sortMode string) *GroupResult {
	type bucket struct {
		key  []string
		rows []map[string]string
	}
	index := make(map[string]int)
	var buckets []*bucket
	for _, row := range rows {
		key := make([]string, len(byFields))
		for i, f := range byFields {
			key[i] = strings.TrimSpace(row[f])
		}
		composite := strings.Join(key, keySep)
		at, ok := index[composite]
		if !ok {
			at = len(buckets)
			index[composite] = at
			buckets = append(buckets, &bucket{key: key})
		}
		buckets[at].rows = append(buckets[at].rows, row)
	}

	groups := make([]*value.Object, 0, len(buckets))
	for _, b := range buckets {
		row := value.NewObject()
		for i, field := range byFields {
			row.Set(field, b.key[i])
		}
		row.Set("count", int64(len(b.rows)))
		for _, s := range specs {
			values := make([]string, 0, len(b.rows))
			for _, r := range b.rows {
				values = append(values, strings.TrimSpace(r[s.Field]))
			}
			row.Set(s.Label(), ApplyCells(values, s.Func))
		}
		groups = append(groups, row)
	}

	sortGroups(groups, byFields, sortMode)
	return &GroupResult{
		TotalRecords: len(rows),
		TotalGroups:  len(groups),
		Groups:       groups,
	}
}

// Limit truncates groups to the top n; negative n empties the list.
func Limit(groups []*value.Object, n int) []*value.Object {
	if n < 0 {
		n = 0
	}
	if n > len(groups) {
		n = len(groups)
	}
	return groups[:n]
}

func sortGroups(groups []*value.Object, byFields []string, mode string) {
	if mode == "key" {
		sort.SliceStable(groups, func(i, j int) bool {
			return compareKeyTuple(groups[i], groups[j], byFields) < 0
		})
		return
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groupCount(groups[i]) > groupCount(groups[j])
	})
}

func groupCount(row *value.Object) int64 {
	if v, ok := row.Get("count"); ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}

func compareKeyTuple(a, b *value.Object, fields []string) int {
	for _, f := range fields {
		av, _ := a.Get(f)
		bv, _ := b.Get(f)
		if c := compareValues(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// compareValues orders two key values: numbers numerically when both
// sides are numeric, everything else by display text. Nulls sort as
// empty strings.
func compareValues(a, b any) int {
	if af, aok := value.ToFloat64(a); aok {
		if bf, bok := value.ToFloat64(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(keyText(a), keyText(b))
}

func keyText(v any) string {
	if v == nil {
		return ""
	}
	return value.Display(v)
}
