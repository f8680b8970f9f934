package predicate

import (
	"fmt"
	"regexp"
	"strings"
)

// RowPredicate reports whether a CSV row matches a condition. Cells are
// raw text, so comparisons are lexicographic.
type RowPredicate func(row map[string]string) bool

// CellWhere compiles a comparison such as `status!="failed"` against a
// single column. A missing column compares as the empty string.
func CellWhere(expr string) (RowPredicate, error) {
	m := whereRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return nil, fmt.Errorf("%w: %q is not column<op>value", ErrInvalidExpression, expr)
	}
	col := strings.TrimSpace(m[1])
	op := m[2]
	rhs := strings.Trim(strings.Trim(strings.TrimSpace(m[3]), `"`), "'")

	return func(row map[string]string) bool {
		cell := row[col]
		switch op {
		case "==":
			return cell == rhs
		case "!=":
			return cell != rhs
		case ">":
			return cell > rhs
		case "<":
			return cell < rhs
		case ">=":
			return cell >= rhs
		default:
			return cell <= rhs
		}
	}, nil
}

// CellIn compiles a "column:v1,v2" membership condition; cell and values
// are compared trimmed.
func CellIn(spec string) (RowPredicate, error) {
	col, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("%w: in condition must be column:value1,value2", ErrInvalidExpression)
	}
	col = strings.TrimSpace(col)
	set := make(map[string]struct{})
	for _, v := range strings.Split(rest, ",") {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return func(row map[string]string) bool {
		_, ok := set[strings.TrimSpace(row[col])]
		return ok
	}, nil
}

// CellContains compiles a "column:substring" condition.
func CellContains(spec string) (RowPredicate, error) {
	col, substring, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("%w: contains condition must be column:substring", ErrInvalidExpression)
	}
	col = strings.TrimSpace(col)
	return func(row map[string]string) bool {
		return strings.Contains(row[col], substring)
	}, nil
}

// CellRegex compiles a "column:pattern" condition.
func CellRegex(spec string) (RowPredicate, error) {
	col, pattern, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("%w: regex condition must be column:pattern", ErrInvalidExpression)
	}
	col = strings.TrimSpace(col)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegex, err)
	}
	return func(row map[string]string) bool {
		return re.MatchString(row[col])
	}, nil
}

// CellEmpty matches rows whose column is empty or whitespace; invert
// matches non-empty cells instead. Missing columns count as empty.
func CellEmpty(col string, invert bool) RowPredicate {
	col = strings.TrimSpace(col)
	return func(row map[string]string) bool {
		empty := strings.TrimSpace(row[col]) == ""
		return empty != invert
	}
}

// CombineRows joins row predicates with AND (default) or OR. An empty
// list matches everything.
func CombineRows(preds []RowPredicate, useOr bool) RowPredicate {
	return func(row map[string]string) bool {
		if len(preds) == 0 {
			return true
		}
		for _, p := range preds {
			if p(row) {
				if useOr {
					return true
				}
				continue
			}
			if !useOr {
				return false
			}
		}
		return !useOr
	}
}
